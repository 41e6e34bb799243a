package scraper

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-shop/cache"
	"github.com/aluiziolira/go-scrape-shop/models"
	"github.com/aluiziolira/go-scrape-shop/notify"
	"github.com/aluiziolira/go-scrape-shop/storage"
)

type failingStorage struct{}

func (failingStorage) Save(context.Context, models.StoredProduct) error {
	return errors.New("disk full")
}

func (failingStorage) Close() error { return nil }

type readOnlyCache struct {
	*cache.MemoryCache
}

func (readOnlyCache) Set(context.Context, string, models.StoredProduct) error {
	return errors.New("cache is read-only")
}

func newProcessorSession(t *testing.T, store storage.Storage, c cache.Cache) (*session, *httpmock.MockTransport, *notify.Recorder) {
	t.Helper()
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	notes := &notify.Recorder{}
	s, err := NewScraper(cfg, store, c, notes, zap.NewNop())
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	mock := httpmock.NewMockTransport()
	s.useTransport(mock)
	sess := s.openSession()
	t.Cleanup(sess.Close)
	return sess, mock, notes
}

func hasNote(notes *notify.Recorder, substr string) bool {
	for _, m := range notes.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestProcessSuccess(t *testing.T) {
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "products.json"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	c := cache.NewMemoryCache()
	sess, mock, notes := newProcessorSession(t, store, c)
	mock.RegisterResponder(http.MethodGet, "http://shop.test/img/a.jpg", httpmock.NewBytesResponder(http.StatusOK, []byte("img")))

	product := models.Product{Title: "Widget A", Price: models.PriceOf(10), ImageURL: "http://shop.test/img/a.jpg"}
	if !sess.process(context.Background(), product) {
		t.Fatalf("process failed: %v", notes.Messages())
	}

	stored, ok, _ := c.Get(context.Background(), "Widget A")
	if !ok {
		t.Fatalf("product not cached")
	}
	want := filepath.Join(sess.scraper.cfg.ImageDir, "a.jpg")
	if abs, _ := filepath.Abs(want); stored.ImagePath != abs {
		t.Fatalf("image path = %q, want %q", stored.ImagePath, abs)
	}
	if len(notes.Messages()) != 0 {
		t.Fatalf("unexpected notifications: %v", notes.Messages())
	}
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name      string
		store     storage.Storage
		imageURL  string
		status    int
		wantNote  string
		wantLabel string
	}{
		{
			name:      "image not found",
			imageURL:  "http://shop.test/img/a.jpg",
			status:    http.StatusNotFound,
			wantNote:  "404",
			wantLabel: "download",
		},
		{
			name:      "storage failure",
			store:     failingStorage{},
			imageURL:  "http://shop.test/img/a.jpg",
			status:    http.StatusOK,
			wantNote:  "disk full",
			wantLabel: "storage",
		},
		{
			name:      "missing image url",
			imageURL:  "",
			wantNote:  "image url is empty",
			wantLabel: "other",
		},
		{
			name:      "image url without file name",
			imageURL:  "http://shop.test/img/",
			wantNote:  "no file name",
			wantLabel: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				js, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "products.json"))
				if err != nil {
					t.Fatalf("storage: %v", err)
				}
				store = js
			}
			c := cache.NewMemoryCache()
			sess, mock, notes := newProcessorSession(t, store, c)
			if tt.status != 0 {
				mock.RegisterResponder(http.MethodGet, tt.imageURL, httpmock.NewBytesResponder(tt.status, []byte("img")))
			}

			product := models.Product{Title: "Widget A", Price: models.PriceOf(10), ImageURL: tt.imageURL}
			if sess.process(context.Background(), product) {
				t.Fatalf("expected failure")
			}
			if !hasNote(notes, "Error processing product Widget A") || !hasNote(notes, tt.wantNote) {
				t.Fatalf("notifications %v do not mention %q", notes.Messages(), tt.wantNote)
			}
			if c.Len() != 0 {
				t.Fatalf("failed product must not be cached")
			}
			if got := testutil.ToFloat64(sess.scraper.Metrics.ErrorsTotal.WithLabelValues(tt.wantLabel)); got != 1 {
				t.Fatalf("errors{%s} = %v, want 1", tt.wantLabel, got)
			}
			if js, ok := store.(*storage.JSONStorage); ok {
				products, _ := js.Load()
				if len(products) != 0 {
					t.Fatalf("failed product must not be stored: %+v", products)
				}
			}
		})
	}
}

func TestProcessCacheWriteFailureStillCounts(t *testing.T) {
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "products.json"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	sess, mock, notes := newProcessorSession(t, store, readOnlyCache{cache.NewMemoryCache()})
	mock.RegisterResponder(http.MethodGet, "http://shop.test/img/a.jpg", httpmock.NewBytesResponder(http.StatusOK, []byte("img")))

	if !sess.process(context.Background(), models.Product{Title: "Widget A", ImageURL: "http://shop.test/img/a.jpg"}) {
		t.Fatalf("persisted product should count as processed")
	}
	if !hasNote(notes, "Error caching product Widget A") {
		t.Fatalf("expected cache failure notification, got %v", notes.Messages())
	}
	products, _ := store.Load()
	if len(products) != 1 {
		t.Fatalf("stored = %d, want 1", len(products))
	}
}

func TestRunProcessesDespiteCacheReadErrors(t *testing.T) {
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "products.json"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	cfg := testConfig(t)
	notes := &notify.Recorder{}
	s, err := NewScraper(cfg, store, &brokenCache{cache.NewMemoryCache()}, notes, zap.NewNop())
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	mock := httpmock.NewMockTransport()
	s.useTransport(mock)
	mock.RegisterResponder(http.MethodGet, "http://shop.test/shop/page/1/", httpmock.NewStringResponder(http.StatusOK, catalogPage(widgets[0])))
	mock.RegisterResponder(http.MethodGet, "http://shop.test/shop/page/2/", httpmock.NewStringResponder(http.StatusOK, catalogPage()))
	mock.RegisterResponder(http.MethodGet, "http://shop.test/img/a.jpg", httpmock.NewBytesResponder(http.StatusOK, []byte("img")))

	result, err := s.Run(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("result = %+v, notes %v", result, notes.Messages())
	}
}
