package listcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// OrdersCache is a Cache over orders with status and date range filters and
// a statistics snapshot that is refreshed together with the collection.
type OrdersCache struct {
	*Cache

	orders admin.OrdersClient

	statsMu         sync.RWMutex
	stats           *admin.OrderStats
	statsErr        error
	statsGeneration uint64
}

// NewOrders creates an orders cache. Unless disabled with WithAutoFetch, the
// collection and the statistics are loaded before NewOrders returns.
func NewOrders(ctx context.Context, orders admin.OrdersClient, opts ...Option) *OrdersCache {
	o := newOptions(opts)
	if o.filter == nil {
		loc := o.location
		o.filter = func(records []admin.Record, filter FilterState) []admin.Record {
			return ApplyOrderFilter(records, filter, loc)
		}
	}

	c := &OrdersCache{
		Cache:  newCache(orders, o),
		orders: orders,
	}
	c.target = c
	c.statsSource = c.Stats

	if o.autoFetch {
		_ = c.Refresh(ctx)
	}

	return c
}

// Stats returns the last applied statistics and the error of the last
// statistics fetch.
func (c *OrdersCache) Stats() (*admin.OrderStats, error) {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()

	return c.stats, c.statsErr
}

// FetchStats reloads the statistics and notifies observers; the snapshot
// carries the new statistics. A failed fetch keeps the previous statistics.
func (c *OrdersCache) FetchStats(ctx context.Context) error {
	c.statsMu.Lock()
	c.statsGeneration++
	generation := c.statsGeneration
	c.statsMu.Unlock()

	stats, err := c.orders.GetStats(ctx)

	c.statsMu.Lock()
	if generation == c.statsGeneration {
		c.statsErr = err
		if err == nil {
			c.stats = stats
		}
	}
	c.statsMu.Unlock()

	c.emit()

	return err
}

// Refresh reloads the collection and the statistics concurrently and returns
// once both requests have completed.
func (c *OrdersCache) Refresh(ctx context.Context) error {
	var group errgroup.Group

	group.Go(func() error {
		return c.Cache.Refetch(ctx)
	})
	group.Go(func() error {
		return c.FetchStats(ctx)
	})

	return group.Wait()
}

// ApplyLocal patches the collection and reloads the statistics, which cannot
// be derived locally.
func (c *OrdersCache) ApplyLocal(ctx context.Context, w Write) error {
	_ = c.Cache.ApplyLocal(ctx, w)

	return c.FetchStats(ctx)
}

// UpdateStatus moves an order to status through the status endpoint and
// reconciles the collection and statistics. Transition rules are enforced by
// the backend only.
func (c *OrdersCache) UpdateStatus(ctx context.Context, id, status string) (admin.Record, error) {
	record, err := c.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	c.afterWrite(ctx, Write{Kind: WritePatch, ID: id, Record: record})

	return record, nil
}

// SearchByPhone returns the orders of one customer without touching the
// collection.
func (c *OrdersCache) SearchByPhone(ctx context.Context, phone string) (admin.ListResult, error) {
	return c.orders.GetByPhone(ctx, phone)
}

// SetStatusFilter keeps only orders whose status equals status. An empty
// status disables the predicate.
func (c *OrdersCache) SetStatusFilter(status string) {
	c.updateFilter(func(f *FilterState) {
		f.Status = status
	})
}

// SetDateRange sets the inclusive date bounds as YYYY-MM-DD; an empty bound
// is open. Invalid bounds leave the filter unchanged.
func (c *OrdersCache) SetDateRange(from, to string) error {
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}

		if _, err := ParseDate(bound, c.opts.location); err != nil {
			return fmt.Errorf("%w: %q", err, bound)
		}
	}

	c.updateFilter(func(f *FilterState) {
		f.DateFrom = from
		f.DateTo = to
	})

	return nil
}

// ClearFilters resets the text, status and date predicates.
func (c *OrdersCache) ClearFilters() {
	c.updateFilter(func(f *FilterState) {
		*f = FilterState{}
	})
}
