// Package report holds the aggregation rules that turn raw sales and
// inventory snapshots into per-item report rows and calendar buckets.
// Everything here is pure: callers own fetching, persistence and caching.
package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"reportanalysis/internal/domain"
)

const (
	MinOffsetHours = -18
	MaxOffsetHours = 18

	UnknownCategory = "Unknown"
)

var ErrOffsetOutOfRange = errors.New("offset hours out of range")

// UnknownProductName is the grouping key for line items whose identifier has
// no inventory match. The identifier stays in the label so distinct unknown
// items never merge.
func UnknownProductName(itemID int64) string {
	return fmt.Sprintf("Unknown Product (ID: %d)", itemID)
}

type itemTotals struct {
	quantity int
	revenue  decimal.Decimal
}

// BuildRows joins line items to inventory by identifier and returns one row
// per distinct item name, ordered by name.
func BuildRows(sales []domain.SaleTransaction, inventory []domain.InventoryItem) []domain.ReportRow {
	byID := make(map[int64]domain.InventoryItem, len(inventory))
	for _, item := range inventory {
		byID[item.ID] = item
	}

	totals := make(map[string]*itemTotals)
	for _, sale := range sales {
		for _, line := range sale.Items {
			key, unitPrice := resolveLine(line, byID)
			t, ok := totals[key]
			if !ok {
				t = &itemTotals{}
				totals[key] = t
			}
			t.quantity += line.Quantity
			t.revenue = t.revenue.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	byName := make(map[string]domain.InventoryItem, len(inventory))
	for _, item := range inventory {
		if _, seen := byName[item.Name]; !seen {
			byName[item.Name] = item
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]domain.ReportRow, 0, len(names))
	for _, name := range names {
		t := totals[name]
		row := domain.ReportRow{
			ItemName:     name,
			QuantitySold: t.quantity,
			TotalRevenue: t.revenue,
			Category:     UnknownCategory,
		}
		if item, ok := byName[name]; ok {
			row.RemainingStock = item.Stock
			row.Category = item.Category
		}
		rows = append(rows, row)
	}
	return rows
}

func resolveLine(line domain.SaleLineItem, byID map[int64]domain.InventoryItem) (string, decimal.Decimal) {
	item, ok := byID[line.ItemID]
	if !ok {
		return UnknownProductName(line.ItemID), decimal.NewFromFloat(line.Price)
	}
	if item.Price != nil {
		return item.Name, decimal.NewFromFloat(*item.Price)
	}
	return item.Name, decimal.NewFromFloat(line.Price)
}

func saleTotal(sale domain.SaleTransaction) decimal.Decimal {
	return decimal.NewFromFloat(sale.Cash).Add(decimal.NewFromFloat(sale.Digital))
}
