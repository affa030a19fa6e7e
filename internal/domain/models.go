package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleTransaction is one POS sale as served by the sales feed.
type SaleTransaction struct {
	ID      int64          `json:"id"`
	Cash    float64        `json:"cash"`
	Digital float64        `json:"digital"`
	Date    time.Time      `json:"date"`
	Items   []SaleLineItem `json:"items"`
}

type SaleLineItem struct {
	ItemID   int64   `json:"itemId"`
	Quantity int     `json:"quantity"`
	ItemName string  `json:"itemName,omitempty"`
	Price    float64 `json:"price"`
}

// InventoryItem is the inventory service's product record. Price is nullable
// upstream; a nil price defers to the line item's own price.
type InventoryItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Disabled    bool     `json:"disabled"`
}

// ReportRow is one persisted per-item aggregate.
type ReportRow struct {
	ID             int64
	ItemName       string
	QuantitySold   int
	TotalRevenue   decimal.Decimal
	RemainingStock int
	Category       string
}

type ReportResponse struct {
	ItemName       string  `json:"itemName"`
	QuantitySold   int     `json:"quantitySold"`
	Revenue        float64 `json:"revenue"`
	RemainingStock int     `json:"remainingStock"`
	Category       string  `json:"category"`
}

func (r ReportRow) Response() ReportResponse {
	return ReportResponse{
		ItemName:       r.ItemName,
		QuantitySold:   r.QuantitySold,
		Revenue:        r.TotalRevenue.InexactFloat64(),
		RemainingStock: r.RemainingStock,
		Category:       r.Category,
	}
}

type WeeklyBucket struct {
	Day   string  `json:"day"`
	Total float64 `json:"total"`
}

type MonthlyBucket struct {
	Week  string  `json:"week"`
	Total float64 `json:"total"`
}

// Snapshot is the derived bucket view produced by one generation run.
type Snapshot struct {
	RunID       uuid.UUID       `json:"runId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	OffsetHours int             `json:"offsetHours"`
	Weekly      []WeeklyBucket  `json:"weekly"`
	Monthly     []MonthlyBucket `json:"monthly"`
}

type SnapshotInfo struct {
	RunID        uuid.UUID `json:"runId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	OffsetHours  int       `json:"offsetHours"`
	WeeklyCount  int       `json:"weeklyBuckets"`
	MonthlyCount int       `json:"monthlyBuckets"`
}

// Clone copies the bucket slices so callers cannot mutate a cached value.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Weekly = append(make([]WeeklyBucket, 0, len(s.Weekly)), s.Weekly...)
	out.Monthly = append(make([]MonthlyBucket, 0, len(s.Monthly)), s.Monthly...)
	return out
}

func (s Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		RunID:        s.RunID,
		GeneratedAt:  s.GeneratedAt,
		OffsetHours:  s.OffsetHours,
		WeeklyCount:  len(s.Weekly),
		MonthlyCount: len(s.Monthly),
	}
}

// GenerationResult summarizes a completed run.
type GenerationResult struct {
	RunID           uuid.UUID `json:"runId"`
	GeneratedAt     time.Time `json:"generatedAt"`
	OffsetHours     int       `json:"offsetHours"`
	ReportRows      int       `json:"reportRows"`
	SalesFetched    int       `json:"salesFetched"`
	ItemsFetched    int       `json:"inventoryFetched"`
	SalesFailed     bool      `json:"salesUnavailable"`
	InventoryFailed bool      `json:"inventoryUnavailable"`
}

type GenerateResponse struct {
	Message string `json:"message"`
	GenerationResult
}

// Actor is the authenticated caller taken from bearer token claims.
type Actor struct {
	Subject string `json:"sub"`
	Role    string `json:"role,omitempty"`
}
