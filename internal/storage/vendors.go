package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/model"
)

const vendorCacheTTL = 5 * time.Minute

// GetVendor retrieves a known vendor by name. Unknown names return
// common.ErrNotFound.
func (s *SQLiteStorage) GetVendor(ctx context.Context, name string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	if vendor := s.getCachedVendor(name); vendor != nil {
		return vendor, nil
	}

	var vendor model.Vendor
	err := s.db.QueryRowContext(ctx, `
		SELECT name, use_count, last_seen
		FROM vendors
		WHERE name = ?`, name).Scan(
		&vendor.Name, &vendor.UseCount, &vendor.LastSeen,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vendor %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	s.cacheVendor(&vendor)
	return &vendor, nil
}

// SaveVendor inserts a vendor or bumps its use count.
func (s *SQLiteStorage) SaveVendor(ctx context.Context, vendor *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if vendor == nil {
		return fmt.Errorf("%w: vendor", ErrNilParameter)
	}
	if err := validateString(vendor.Name, "vendor.Name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (name, use_count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			use_count = vendors.use_count + 1,
			last_seen = CURRENT_TIMESTAMP`,
		vendor.Name, vendor.UseCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save vendor: %w", err)
	}

	s.invalidateVendorCache()
	return nil
}

// GetVendorNames returns all known vendor spellings, most used first. The
// corrector consumes this list; it is refreshed from storage per run rather
// than held as global state.
func (s *SQLiteStorage) GetVendorNames(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM vendors ORDER BY use_count DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan vendor name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}
	return names, nil
}

func (s *SQLiteStorage) getCachedVendor(name string) *model.Vendor {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.vendorCache[name]
}

func (s *SQLiteStorage) cacheVendor(vendor *model.Vendor) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if time.Now().After(s.cacheExpiry) {
		s.vendorCache = make(map[string]*model.Vendor)
		s.cacheExpiry = time.Now().Add(vendorCacheTTL)
	}
	s.vendorCache[vendor.Name] = vendor
}

func (s *SQLiteStorage) invalidateVendorCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.vendorCache = make(map[string]*model.Vendor)
	s.cacheExpiry = time.Time{}
}
