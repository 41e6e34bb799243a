// Package models defines data structures for the scraper.
package models

import "time"

// Product is a listing freshly extracted from a catalog page.
type Product struct {
	Title    string
	Price    *float64
	ImageURL string
}

// StoredProduct is the record handed to storage and kept in the cache.
// The remote image URL is replaced by the absolute path of the downloaded file.
type StoredProduct struct {
	Title     string   `json:"product_title"`
	Price     *float64 `json:"product_price"`
	ImagePath string   `json:"path_to_image"`
}

// ScraperResult holds the overall result of one scrape run.
type ScraperResult struct {
	StartTime time.Time
	EndTime   time.Time
	Processed int
	Failed    int
	Skipped   int
	Pages     int
}

// PriceOf returns a pointer to v, handy for building records by hand.
func PriceOf(v float64) *float64 {
	return &v
}
