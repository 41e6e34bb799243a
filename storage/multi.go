package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// Multi writes every record to several backends. Each backend is attempted
// even when an earlier one fails. A record counts as saved once any backend
// accepts it; Save fails outright only when every backend fails.
type Multi struct {
	sinks []Storage
}

func NewMulti(sinks ...Storage) *Multi {
	return &Multi{sinks: sinks}
}

// PartialSaveError is returned by Multi.Save when the record was persisted by
// at least one backend but rejected by others.
type PartialSaveError struct {
	Saved  int
	Failed []error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("saved to %d of %d backends: %v", e.Saved, e.Saved+len(e.Failed), errors.Join(e.Failed...))
}

func (e *PartialSaveError) Unwrap() []error { return e.Failed }

func (m *Multi) Save(ctx context.Context, product models.StoredProduct) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Save(ctx, product); err != nil {
			errs = append(errs, fmt.Errorf("backend %d (%T): %w", i, s, err))
		}
	}
	switch saved := len(m.sinks) - len(errs); {
	case len(errs) == 0:
		return nil
	case saved == 0:
		return errors.Join(errs...)
	default:
		return &PartialSaveError{Saved: saved, Failed: errs}
	}
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
