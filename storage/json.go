package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// JSONStorage keeps all records in one JSON array file. Every Save reads the
// file, appends, and rewrites it.
type JSONStorage struct {
	filename string
	mu       sync.Mutex
}

// NewJSONStorage creates the parent directory of filename if needed.
func NewJSONStorage(filename string) (*JSONStorage, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONStorage{filename: filename}, nil
}

// Save appends product. A missing, empty, corrupt, or non-array file is
// replaced by a fresh array.
func (js *JSONStorage) Save(_ context.Context, product models.StoredProduct) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	existing, err := js.readArray()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	existing = append(existing, raw)

	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json array: %w", err)
	}
	if err := os.WriteFile(js.filename, out, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// Load returns every stored record. A missing file yields an empty slice.
func (js *JSONStorage) Load() ([]models.StoredProduct, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := os.ReadFile(js.filename)
	if errors.Is(err, os.ErrNotExist) {
		return []models.StoredProduct{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var products []models.StoredProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode json file: %w", err)
	}
	return products, nil
}

func (js *JSONStorage) Close() error {
	return nil
}

// readArray keeps elements as raw JSON so entries written by other tools survive.
func (js *JSONStorage) readArray() ([]json.RawMessage, error) {
	data, err := os.ReadFile(js.filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var existing []json.RawMessage
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, nil
	}
	return existing, nil
}
