package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aluiziolira/go-scrape-shop/models"
)

const createSQLiteTable = `
CREATE TABLE IF NOT EXISTS products (
	"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
	"product_title" TEXT NOT NULL,
	"product_price" REAL,
	"path_to_image" TEXT NOT NULL,
	"saved_at" DATETIME NOT NULL
);`

// SQLiteStorage appends records to a products table in a local database file.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; concurrent inserts would hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSQLiteTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create products table: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Save(ctx context.Context, product models.StoredProduct) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (product_title, product_price, path_to_image, saved_at) VALUES (?, ?, ?, ?)`,
		product.Title, nullablePrice(product.Price), product.ImagePath, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullablePrice(price *float64) sql.NullFloat64 {
	if price == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *price, Valid: true}
}
