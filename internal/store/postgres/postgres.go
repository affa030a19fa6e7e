package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"reportanalysis/internal/domain"
	"reportanalysis/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already opened handle. The caller keeps ownership of
// pool settings.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ListReports(ctx context.Context) ([]domain.ReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, quantity_sold, total_revenue, remaining_stock, category
		FROM report_entries
		ORDER BY item_name COLLATE "C", id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.ReportRow, 0, 64)
	for rows.Next() {
		var r domain.ReportRow
		if err := rows.Scan(&r.ID, &r.ItemName, &r.QuantitySold, &r.TotalRevenue, &r.RemainingStock, &r.Category); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

func (s *Store) FindReportByItem(ctx context.Context, itemName string) (*domain.ReportRow, error) {
	var r domain.ReportRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_name, quantity_sold, total_revenue, remaining_stock, category
		FROM report_entries
		WHERE lower(item_name) = lower($1)
		ORDER BY id
		LIMIT 1
	`, itemName).Scan(&r.ID, &r.ItemName, &r.QuantitySold, &r.TotalRevenue, &r.RemainingStock, &r.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) ReplaceReports(ctx context.Context, reports []domain.ReportRow) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_entries`); err != nil {
		return err
	}

	for _, r := range reports {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_entries (item_name, quantity_sold, total_revenue, remaining_stock, category)
			VALUES ($1,$2,$3,$4,$5)
		`, r.ItemName, r.QuantitySold, r.TotalRevenue, r.RemainingStock, r.Category); err != nil {
			return err
		}
	}

	return tx.Commit()
}
