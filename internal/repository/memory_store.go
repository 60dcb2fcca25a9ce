package repository

import (
	"context"
	"fmt"
	"sync"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

// MemoryStore keeps sheets in process. Used for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	sheets map[string]models.Table
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]models.Table)}
}

func (s *MemoryStore) ListSheets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

func (s *MemoryStore) Exists(ctx context.Context, sheet string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sheets[sheet]
	return ok, nil
}

func (s *MemoryStore) Read(ctx context.Context, sheet string) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return models.Table{}, apperr.Transient("read "+sheet, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sheets[sheet]
	if !ok {
		return models.Table{}, apperr.Fatal("read "+sheet, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet))
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Append(ctx context.Context, sheet string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Transient("append "+sheet, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sheets[sheet]
	if !ok {
		return apperr.Fatal("append "+sheet, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet))
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, append([]string(nil), r...))
	}
	s.sheets[sheet] = t
	return nil
}

func (s *MemoryStore) Overwrite(ctx context.Context, sheet string, table models.Table) error {
	if err := ctx.Err(); err != nil {
		return apperr.Transient("overwrite "+sheet, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[sheet]; !ok {
		s.order = append(s.order, sheet)
	}
	s.sheets[sheet] = table.Clone()
	return nil
}
