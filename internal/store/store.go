package store

import (
	"context"
	"errors"

	"reportanalysis/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
)

// Repository persists the computed report rows. ReplaceReports swaps the whole
// set: either every row is replaced or nothing changes.
type Repository interface {
	ListReports(ctx context.Context) ([]domain.ReportRow, error)
	FindReportByItem(ctx context.Context, itemName string) (*domain.ReportRow, error)
	ReplaceReports(ctx context.Context, rows []domain.ReportRow) error
}
