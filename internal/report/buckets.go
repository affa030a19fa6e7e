package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"reportanalysis/internal/domain"
)

// Zone returns the fixed location for a whole-hour UTC offset.
func Zone(offsetHours int) (*time.Location, error) {
	if offsetHours < MinOffsetHours || offsetHours > MaxOffsetHours {
		return nil, fmt.Errorf("%w: %d", ErrOffsetOutOfRange, offsetHours)
	}
	if offsetHours == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d:00", offsetHours), offsetHours*3600), nil
}

// WeeklyBuckets sums cash+digital per local day of week over the whole sales
// history. Buckets are ordered Monday first.
func WeeklyBuckets(sales []domain.SaleTransaction, loc *time.Location) []domain.WeeklyBucket {
	totals := make(map[time.Weekday]decimal.Decimal, 7)
	for _, sale := range sales {
		if sale.Date.IsZero() {
			continue
		}
		day := sale.Date.In(loc).Weekday()
		totals[day] = totals[day].Add(saleTotal(sale))
	}

	days := make([]time.Weekday, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return isoWeekday(days[i]) < isoWeekday(days[j]) })

	buckets := make([]domain.WeeklyBucket, 0, len(days))
	for _, day := range days {
		buckets = append(buckets, domain.WeeklyBucket{
			Day:   DayLabel(day),
			Total: totals[day].InexactFloat64(),
		})
	}
	return buckets
}

// MonthlyBuckets sums cash+digital per week of month for sales that fall in
// the same local calendar month as now.
func MonthlyBuckets(sales []domain.SaleTransaction, loc *time.Location, now time.Time) []domain.MonthlyBucket {
	current := now.In(loc)
	totals := make(map[int]decimal.Decimal, 6)
	for _, sale := range sales {
		if sale.Date.IsZero() {
			continue
		}
		local := sale.Date.In(loc)
		if local.Year() != current.Year() || local.Month() != current.Month() {
			continue
		}
		week := WeekOfMonth(local)
		totals[week] = totals[week].Add(saleTotal(sale))
	}

	weeks := make([]int, 0, len(totals))
	for week := range totals {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	buckets := make([]domain.MonthlyBucket, 0, len(weeks))
	for _, week := range weeks {
		buckets = append(buckets, domain.MonthlyBucket{
			Week:  fmt.Sprintf("W%d", week),
			Total: totals[week].InexactFloat64(),
		})
	}
	return buckets
}

// WeekOfMonth numbers weeks with the ISO-8601 rule: weeks start on Monday and
// week 1 is the first week holding at least four days of the month. Days
// before week 1 are week 0.
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	firstDow := isoWeekday(first.Weekday())

	week := (t.Day() - 1 + firstDow - 1) / 7
	if 8-firstDow >= 4 {
		week++
	}
	return week
}

// DayLabel is the three-letter upper-case day name, e.g. "MON".
func DayLabel(day time.Weekday) string {
	return strings.ToUpper(day.String()[:3])
}

// isoWeekday maps Monday..Sunday to 1..7.
func isoWeekday(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}
