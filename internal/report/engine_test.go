package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportanalysis/internal/domain"
)

func price(v float64) *float64 { return &v }

func TestBuildRowsSingleMatchedItem(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: 1, Name: "Coke", Price: price(1.5), Stock: 10, Category: "Beverages"},
	}
	sales := []domain.SaleTransaction{{
		ID:   100,
		Date: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Items: []domain.SaleLineItem{
			{ItemID: 1, Quantity: 3, Price: 1.5},
		},
	}}

	rows := BuildRows(sales, inventory)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Coke", row.ItemName)
	assert.Equal(t, 3, row.QuantitySold)
	assert.Equal(t, "4.5", row.TotalRevenue.String())
	assert.Equal(t, 10, row.RemainingStock)
	assert.Equal(t, "Beverages", row.Category)
}

func TestBuildRowsPrefersInventoryPriceAndFallsBackToLinePrice(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: 1, Name: "Bread", Price: price(2.25), Stock: 4, Category: "Bakery"},
		{ID: 2, Name: "Milk", Price: nil, Stock: 7, Category: "Dairy"},
	}
	sales := []domain.SaleTransaction{
		{ID: 1, Items: []domain.SaleLineItem{
			{ItemID: 1, Quantity: 2, Price: 9.99},
			{ItemID: 2, Quantity: 1, Price: 1.1},
		}},
		{ID: 2, Items: []domain.SaleLineItem{
			{ItemID: 99, Quantity: 4, Price: 0.5},
			{ItemID: 1, Quantity: 1, Price: 0},
		}},
	}

	rows := BuildRows(sales, inventory)
	require.Len(t, rows, 3)

	byName := map[string]domain.ReportRow{}
	for _, row := range rows {
		byName[row.ItemName] = row
	}

	bread := byName["Bread"]
	assert.Equal(t, 3, bread.QuantitySold)
	assert.Equal(t, "6.75", bread.TotalRevenue.String())

	milk := byName["Milk"]
	assert.Equal(t, "1.1", milk.TotalRevenue.String())
	assert.Equal(t, 7, milk.RemainingStock)

	unknown, ok := byName["Unknown Product (ID: 99)"]
	require.True(t, ok)
	assert.Equal(t, 4, unknown.QuantitySold)
	assert.Equal(t, "2", unknown.TotalRevenue.String())
	assert.Equal(t, 0, unknown.RemainingStock)
	assert.Equal(t, UnknownCategory, unknown.Category)
}

func TestBuildRowsKeepsDistinctUnknownIdentifiersApart(t *testing.T) {
	sales := []domain.SaleTransaction{{Items: []domain.SaleLineItem{
		{ItemID: 7, Quantity: 1, Price: 1},
		{ItemID: 8, Quantity: 1, Price: 1},
		{ItemID: 7, Quantity: 2, Price: 1},
	}}}

	rows := BuildRows(sales, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "Unknown Product (ID: 7)", rows[0].ItemName)
	assert.Equal(t, 3, rows[0].QuantitySold)
	assert.Equal(t, "Unknown Product (ID: 8)", rows[1].ItemName)
}

func TestBuildRowsDuplicateInventoryIDLastWins(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: 5, Name: "Old Name", Price: price(1), Stock: 1, Category: "A"},
		{ID: 5, Name: "New Name", Price: price(3), Stock: 2, Category: "B"},
	}
	sales := []domain.SaleTransaction{{Items: []domain.SaleLineItem{{ItemID: 5, Quantity: 2}}}}

	rows := BuildRows(sales, inventory)
	require.Len(t, rows, 1)
	assert.Equal(t, "New Name", rows[0].ItemName)
	assert.Equal(t, "6", rows[0].TotalRevenue.String())
	assert.Equal(t, "B", rows[0].Category)
}

func TestBuildRowsStockLookupByNameFirstMatchWins(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: 1, Name: "Tea", Price: price(1), Stock: 11, Category: "Hot"},
		{ID: 2, Name: "Tea", Price: price(1), Stock: 22, Category: "Cold"},
	}
	sales := []domain.SaleTransaction{{Items: []domain.SaleLineItem{
		{ItemID: 1, Quantity: 1},
		{ItemID: 2, Quantity: 1},
	}}}

	rows := BuildRows(sales, inventory)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].QuantitySold)
	assert.Equal(t, 11, rows[0].RemainingStock)
	assert.Equal(t, "Hot", rows[0].Category)
}

func TestBuildRowsTreatsMissingItemsAsEmpty(t *testing.T) {
	sales := []domain.SaleTransaction{{ID: 1, Cash: 5, Items: nil}}

	rows := BuildRows(sales, []domain.InventoryItem{{ID: 1, Name: "Coke"}})
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBuildRowsGroupCountMatchesDistinctNames(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: 1, Name: "A", Price: price(1)},
		{ID: 2, Name: "B", Price: price(1)},
		{ID: 3, Name: "A", Price: price(1)},
	}
	sales := []domain.SaleTransaction{
		{Items: []domain.SaleLineItem{{ItemID: 1, Quantity: 1}, {ItemID: 2, Quantity: 1}}},
		{Items: []domain.SaleLineItem{{ItemID: 3, Quantity: 1}, {ItemID: 4, Quantity: 1}}},
	}

	rows := BuildRows(sales, inventory)
	names := map[string]struct{}{}
	for _, row := range rows {
		names[row.ItemName] = struct{}{}
	}
	assert.Len(t, rows, 3)
	assert.Len(t, names, len(rows))
}
