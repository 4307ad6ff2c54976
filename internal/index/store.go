// Package index implements the similarity index: partitioned vector storage
// with cosine k-NN queries backed by SQLite.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/model"
)

// MainPartition is the long-lived partition holding the trained model's
// points. All other partitions are ephemeral evaluation scratch space.
const MainPartition = "main"

// Store is a SQLite-backed vector store. Vector dimensionality is fixed for
// the store's lifetime; upserts with a different dimension are rejected.
type Store struct {
	db        *sql.DB
	dimension int
}

// NewStore creates a vector store over an existing database connection.
func NewStore(db *sql.DB, dimension int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database handle is nil", common.ErrInvalidConfig)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive", common.ErrInvalidConfig)
	}
	return &Store{db: db, dimension: dimension}, nil
}

// CreatePartition registers a partition name. Creating an existing partition
// is an error only if it was registered with a different dimension.
func (s *Store) CreatePartition(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("partition name cannot be empty")
	}

	var existing int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimension FROM vector_partitions WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		if existing != s.dimension {
			return fmt.Errorf("partition %s has dimension %d, store expects %d",
				name, existing, s.dimension)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO vector_partitions (name, dimension) VALUES (?, ?)`,
		name, s.dimension)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	return nil
}

// DeletePartition removes a partition and all of its points. Deleting a
// missing partition is a no-op.
func (s *Store) DeletePartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM vector_points WHERE partition_name = ?`, name); err != nil {
		return fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM vector_partitions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	return nil
}

// Upsert stores one point, replacing any previous point with the same ID.
// Last write wins: re-upserting identical data is observably a no-op.
func (s *Store) Upsert(ctx context.Context, partition string, point model.Point) error {
	if len(point.Vector) != s.dimension {
		return fmt.Errorf("point %s: vector dimension %d, store expects %d",
			point.ID, len(point.Vector), s.dimension)
	}
	if point.ID == "" {
		return fmt.Errorf("point ID cannot be empty")
	}

	blob, err := json.Marshal(point.Vector)
	if err != nil {
		return fmt.Errorf("failed to encode vector: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO vector_points
		(partition_name, id, vector, category, amount, date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		partition, point.ID, blob,
		point.Payload.Category, point.Payload.Amount, point.Payload.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	return nil
}

// Query returns the k nearest neighbors of vector within the partition,
// ordered by descending cosine similarity.
func (s *Store) Query(ctx context.Context, partition string, vector []float32, k int) ([]model.Neighbor, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension %d, store expects %d",
			len(vector), s.dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vector, category, amount, date
		FROM vector_points
		WHERE partition_name = ?`, partition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var neighbors []model.Neighbor
	for rows.Next() {
		var id, category string
		var blob []byte
		var amount float64
		var date sql.NullTime
		if err := rows.Scan(&id, &blob, &category, &amount, &date); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
		}

		var stored []float32
		if err := json.Unmarshal(blob, &stored); err != nil {
			slog.Warn("skipping point with unreadable vector",
				"partition", partition, "id", id, "error", err)
			continue
		}

		neighbors = append(neighbors, model.Neighbor{
			ID:         id,
			Similarity: cosineSimilarity(vector, stored),
			Payload: model.Payload{
				Category: category,
				Amount:   amount,
				Date:     date.Time,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ID < neighbors[j].ID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Count returns the number of points in a partition.
func (s *Store) Count(ctx context.Context, partition string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_points WHERE partition_name = ?`, partition).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}
	return n, nil
}

// WithEphemeral runs fn against a freshly created, collision-free partition
// and guarantees the partition is released on every exit path, including
// errors and cancellation. Cleanup runs with its own short deadline so a
// canceled fold still releases its scratch space.
func (s *Store) WithEphemeral(ctx context.Context, fn func(partition string) error) error {
	name := "fold_" + uuid.NewString()[:8]

	if err := s.CreatePartition(ctx, name); err != nil {
		return err
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.DeletePartition(cleanupCtx, name); err != nil {
			slog.Error("failed to delete ephemeral partition",
				"partition", name, "error", err)
		}
	}()

	return fn(name)
}
