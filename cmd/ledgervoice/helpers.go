package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ledgervoice/ledgervoice/internal/config"
	"github.com/ledgervoice/ledgervoice/internal/embed"
	"github.com/ledgervoice/ledgervoice/internal/engine"
	"github.com/ledgervoice/ledgervoice/internal/index"
	"github.com/ledgervoice/ledgervoice/internal/service"
	"github.com/ledgervoice/ledgervoice/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledgervoice/ledgervoice.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func initEmbedder() (service.Embedder, error) {
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimension", 1536)

	return embed.NewEmbedder(embed.Config{
		Provider:  viper.GetString("embedding.provider"),
		BaseURL:   viper.GetString("embedding.base_url"),
		APIKey:    viper.GetString("embedding.api_key"),
		Model:     viper.GetString("embedding.model"),
		Dimension: viper.GetInt("embedding.dimension"),
	})
}

// initEngine wires storage, the embedder, and the vector index into the
// categorization engine. The caller owns closing the returned storage.
func initEngine(ctx context.Context) (*engine.Engine, *storage.SQLiteStorage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := initEmbedder()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	idx, err := index.NewStore(store.DB(), embedder.Dimension())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	if k := viper.GetInt("classifier.neighbors"); k > 0 {
		cfg.NeighborK = k
	}
	if m := viper.GetInt("training.min_samples_per_category"); m > 0 {
		cfg.MinSamplesPerCategory = m
	}
	if f := viper.GetInt("training.folds"); f > 0 {
		cfg.Folds = f
	}
	cfg.ShowProgress = true

	return engine.New(store, embedder, idx, cfg), store, nil
}
