package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReportRowResponseProjectsRevenue(t *testing.T) {
	row := ReportRow{ItemName: "Coke", QuantitySold: 3, TotalRevenue: decimal.RequireFromString("4.5"), RemainingStock: 10, Category: "Beverages"}

	resp := row.Response()
	assert.Equal(t, "Coke", resp.ItemName)
	assert.InDelta(t, 4.5, resp.Revenue, 1e-9)
	assert.Equal(t, 10, resp.RemainingStock)
}

func TestSnapshotCloneDetachesBuckets(t *testing.T) {
	original := Snapshot{Weekly: []WeeklyBucket{{Day: "MON", Total: 1}}}

	clone := original.Clone()
	clone.Weekly[0].Total = 99

	assert.InDelta(t, 1.0, original.Weekly[0].Total, 1e-9)
	assert.NotNil(t, clone.Monthly)
}
