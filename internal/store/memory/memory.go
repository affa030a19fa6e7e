package memory

import (
	"context"
	"strings"
	"sync"

	"reportanalysis/internal/domain"
	"reportanalysis/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	rows   []domain.ReportRow
	nextID int64
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) ListReports(_ context.Context) ([]domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.ReportRow, len(s.rows))
	copy(rows, s.rows)
	return rows, nil
}

func (s *Store) FindReportByItem(_ context.Context, itemName string) (*domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if strings.EqualFold(row.ItemName, itemName) {
			found := row
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ReplaceReports(ctx context.Context, rows []domain.ReportRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	replacement := make([]domain.ReportRow, 0, len(rows))

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	for _, row := range rows {
		row.ID = id
		id++
		replacement = append(replacement, row)
	}
	s.rows = replacement
	s.nextID = id
	return nil
}
