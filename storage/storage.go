// Package storage persists processed products.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-shop/config"
	"github.com/aluiziolira/go-scrape-shop/models"
)

// Storage appends one record per successful product. Implementations are safe
// for concurrent use.
type Storage interface {
	Save(ctx context.Context, product models.StoredProduct) error
	Close() error
}

// Open builds every backend listed in STORAGE_BACKENDS. A single backend is
// returned as is; several are wrapped in a Multi.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	var sinks []Storage
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	for _, backend := range cfg.Backends() {
		var (
			s   Storage
			err error
		)
		switch backend {
		case "json":
			s, err = NewJSONStorage(cfg.JSONFile)
		case "csv":
			s, err = NewCSVStorage(cfg.CSVFile)
		case "sqlite":
			s, err = NewSQLiteStorage(ctx, cfg.SQLitePath)
		case "postgres":
			s, err = NewPostgresStorage(ctx, cfg.PostgresURL)
		default:
			err = fmt.Errorf("unknown storage backend %q", backend)
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open %s storage: %w", backend, err)
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return nil, fmt.Errorf("no storage backend configured")
	case 1:
		return sinks[0], nil
	default:
		return NewMulti(sinks...), nil
	}
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
