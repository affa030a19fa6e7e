package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportanalysis/internal/domain"
	"reportanalysis/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestReplaceReportsCommitsDeleteAndInserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM report_entries`).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO report_entries`).
		WithArgs("Coke", 3, sqlmock.AnyArg(), 10, "Beverages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO report_entries`).
		WithArgs("Tea", 1, sqlmock.AnyArg(), 0, "Unknown").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := s.ReplaceReports(context.Background(), []domain.ReportRow{
		{ItemName: "Coke", QuantitySold: 3, TotalRevenue: decimal.RequireFromString("4.5"), RemainingStock: 10, Category: "Beverages"},
		{ItemName: "Tea", QuantitySold: 1, TotalRevenue: decimal.NewFromInt(2), Category: "Unknown"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceReportsRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM report_entries`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO report_entries`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.ReplaceReports(context.Background(), []domain.ReportRow{{ItemName: "Coke"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceReportsWithNoRowsOnlyClears(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM report_entries`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.ReplaceReports(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsScansRows(t *testing.T) {
	s, mock := newMockStore(t)

	columns := []string{"id", "item_name", "quantity_sold", "total_revenue", "remaining_stock", "category"}
	mock.ExpectQuery(`SELECT (.+) FROM report_entries\s+ORDER BY item_name COLLATE "C", id`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), "Coke", 3, "4.5000", 10, "Beverages").
			AddRow(int64(2), "Tea", 1, "2.0000", 0, "Unknown"))

	rows, err := s.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Coke", rows[0].ItemName)
	assert.True(t, rows[0].TotalRevenue.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, "Unknown", rows[1].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindReportByItemMapsNoRowsToNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	columns := []string{"id", "item_name", "quantity_sold", "total_revenue", "remaining_stock", "category"}
	mock.ExpectQuery(`WHERE lower\(item_name\) = lower\(\$1\)`).
		WithArgs("pepsi").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := s.FindReportByItem(context.Background(), "pepsi")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
