// Package upstream fetches the raw sales and inventory feeds. A fetch result
// is an Outcome: either items or the reason there are none.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reportanalysis/internal/domain"
)

const (
	SalesGatewayName     = "sales"
	InventoryGatewayName = "inventory"
)

type SalesGateway interface {
	ListSales(ctx context.Context) ([]domain.SaleTransaction, error)
}

type InventoryGateway interface {
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
}

// Outcome is the tagged result of one gateway call. Items is never nil.
type Outcome[T any] struct {
	Items   []T
	Err     error
	Elapsed time.Duration
}

func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

func (o Outcome[T]) TimedOut() bool {
	return errors.Is(o.Err, context.DeadlineExceeded)
}

// Fetch calls fn under its own timeout and folds any error or panic into the
// Outcome.
func Fetch[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) ([]T, error)) (out Outcome[T]) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("gateway panic: %v", r)
		}
		if out.Err != nil || out.Items == nil {
			out.Items = []T{}
		}
		out.Elapsed = time.Since(started)
	}()

	out.Items, out.Err = fn(ctx)
	return out
}

func FetchSales(ctx context.Context, gateway SalesGateway, timeout time.Duration) Outcome[domain.SaleTransaction] {
	return Fetch(ctx, timeout, gateway.ListSales)
}

func FetchInventory(ctx context.Context, gateway InventoryGateway, timeout time.Duration) Outcome[domain.InventoryItem] {
	return Fetch(ctx, timeout, gateway.ListInventory)
}
