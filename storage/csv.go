package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-scrape-shop/models"
)

var csvHeader = []string{"product_title", "product_price", "path_to_image"}

// CSVStorage appends records to a CSV file, writing the header only when the
// file starts empty.
type CSVStorage struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVStorage opens filename in append mode.
func NewCSVStorage(filename string) (*CSVStorage, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := writer.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush csv header: %w", err)
		}
	}

	return &CSVStorage{
		file:   f,
		writer: writer,
	}, nil
}

// Save appends one row. An absent price is written as an empty cell.
func (cs *CSVStorage) Save(_ context.Context, product models.StoredProduct) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	price := ""
	if product.Price != nil {
		price = strconv.FormatFloat(*product.Price, 'f', -1, 64)
	}
	if err := cs.writer.Write([]string{product.Title, price, product.ImagePath}); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	cs.writer.Flush()
	if err := cs.writer.Error(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cs *CSVStorage) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.writer.Flush()
	if err := cs.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cs.file.Close()
}
