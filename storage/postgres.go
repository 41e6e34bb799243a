package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aluiziolira/go-scrape-shop/models"
)

const createPostgresTable = `
CREATE TABLE IF NOT EXISTS products (
	id            BIGSERIAL PRIMARY KEY,
	product_title TEXT NOT NULL,
	product_price DOUBLE PRECISION,
	path_to_image TEXT NOT NULL,
	saved_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStorage appends records to a products table through a pgx pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createPostgresTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create products table: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Save(ctx context.Context, product models.StoredProduct) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (product_title, product_price, path_to_image) VALUES ($1, $2, $3)`,
		product.Title, product.Price, product.ImagePath,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
