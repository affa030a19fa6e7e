package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportanalysis/internal/domain"
)

func TestReplaceReportsRoundTripsAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("REPORTANALYSIS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set REPORTANALYSIS_TEST_DATABASE_URL to run postgres integration test")
	}

	require.NoError(t, Migrate(databaseURL, zap.NewNop()))

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.ReplaceReports(ctx, nil)
		_ = s.Close()
	})

	require.NoError(t, s.ReplaceReports(ctx, []domain.ReportRow{
		{ItemName: "apple", QuantitySold: 1, TotalRevenue: decimal.NewFromInt(1), Category: "Produce"},
		{ItemName: "Coke", QuantitySold: 3, TotalRevenue: decimal.RequireFromString("4.5"), RemainingStock: 10, Category: "Beverages"},
	}))

	row, err := s.FindReportByItem(ctx, "COKE")
	require.NoError(t, err)
	assert.Equal(t, 3, row.QuantitySold)
	assert.True(t, row.TotalRevenue.Equal(decimal.RequireFromString("4.5")))

	// Byte order, same as the in-memory store: uppercase sorts first.
	rows, err := s.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Coke", rows[0].ItemName)
	assert.Equal(t, "apple", rows[1].ItemName)

	require.NoError(t, s.ReplaceReports(ctx, nil))
	rows, err = s.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
