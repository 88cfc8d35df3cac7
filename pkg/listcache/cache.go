package listcache

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// Status is the lifecycle state of a cache.
type Status string

// Cache states. Errored keeps the previously held collection.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusErrored Status = "errored"
)

// Snapshot is a consistent copy of a cache's state. Its slices are shared
// with the cache and must not be modified.
type Snapshot struct {
	Status Status
	// Items is the derived view.
	Items []admin.Record
	// All is the unfiltered collection.
	All        []admin.Record
	Pagination *admin.PageInfo
	// Err is the error of the last applied fetch.
	Err error
	// Warnings are the non-fatal anomalies of the last applied fetch.
	Warnings []error
	Filter   FilterState
	// Generation is the number of the last issued fetch.
	Generation uint64
	// Stats and StatsErr are the last applied statistics and the error of
	// the last statistics fetch. Only an OrdersCache sets them.
	Stats    *admin.OrderStats
	StatsErr error
}

// Option configures a cache.
type Option func(*options)

type options struct {
	autoFetch  bool
	params     map[string]string
	categories CategoryLookup
	policy     WritePolicy
	logger     admin.Logger
	onChange   func(Snapshot)
	filter     FilterFunc
	location   *time.Location
}

// WithAutoFetch controls the initial fetch performed by New. Default true.
func WithAutoFetch(enabled bool) Option {
	return func(o *options) {
		o.autoFetch = enabled
	}
}

// WithParams sets the query parameters used by Refetch until Fetch is called
// with others.
func WithParams(params map[string]string) Option {
	return func(o *options) {
		o.params = maps.Clone(params)
	}
}

// WithCategories supplies the category records used to match records by
// category name.
func WithCategories(categories []admin.Record) Option {
	return func(o *options) {
		o.categories = NewCategoryLookup(categories)
	}
}

// WithWritePolicy overrides how writes are reconciled. Default RefetchPolicy.
func WithWritePolicy(policy WritePolicy) Option {
	return func(o *options) {
		if policy != nil {
			o.policy = policy
		}
	}
}

// WithLogger sets the logger for discarded responses and shape warnings.
func WithLogger(logger admin.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside the cache lock,
// and calls are serialized: fn never runs concurrently with itself, so it may
// keep unsynchronized state. fn must not change the cache it observes.
func WithOnChange(fn func(Snapshot)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// WithFilter replaces the derived view computation.
func WithFilter(fn FilterFunc) Option {
	return func(o *options) {
		o.filter = fn
	}
}

// WithLocation sets the zone date range bounds are read in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		autoFetch: true,
		policy:    RefetchPolicy{},
		location:  time.UTC,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Cache holds one resource collection and its derived view. It is safe for
// concurrent use.
type Cache struct {
	source admin.ResourceClient
	opts   options
	// target receives write reconciliation; OrdersCache points it at itself.
	target Target
	// stats, when set, supplies the statistics carried by snapshots.
	statsSource func() (*admin.OrderStats, error)

	// emitMu serializes onChange calls.
	emitMu sync.Mutex

	mu         sync.RWMutex
	status     Status
	all        []admin.Record
	view       []admin.Record
	pagination *admin.PageInfo
	err        error
	warnings   []error
	filter     FilterState
	params     map[string]string
	generation uint64
}

// New creates a cache over source. Unless disabled with WithAutoFetch, the
// first fetch runs before New returns; its failure is held in the snapshot.
func New(ctx context.Context, source admin.ResourceClient, opts ...Option) *Cache {
	c := newCache(source, newOptions(opts))

	if c.opts.autoFetch {
		_ = c.Fetch(ctx, nil)
	}

	return c
}

func newCache(source admin.ResourceClient, o options) *Cache {
	c := &Cache{
		source: source,
		opts:   o,
		status: StatusIdle,
		all:    []admin.Record{},
		view:   []admin.Record{},
		params: o.params,
	}
	c.target = c

	return c
}

// Snapshot returns the current state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	snapshot := c.snapshotLocked()
	c.mu.RUnlock()

	if c.statsSource != nil {
		snapshot.Stats, snapshot.StatsErr = c.statsSource()
	}

	return snapshot
}

// Items returns the derived view.
func (c *Cache) Items() []admin.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.view
}

// All returns the unfiltered collection.
func (c *Cache) All() []admin.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.all
}

// Status returns the lifecycle state.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status
}

// Err returns the error of the last applied fetch.
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.err
}

// Filter returns the active filter state.
func (c *Cache) Filter() FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.filter
}

// Fetch replaces the collection with the backend's. A nil params reuses the
// parameters of the previous fetch. The returned error is the outcome of this
// request even when a newer fetch superseded it.
func (c *Cache) Fetch(ctx context.Context, params map[string]string) error {
	c.mu.Lock()
	if params != nil {
		c.params = maps.Clone(params)
	}

	params = c.params
	generation := c.begin()
	c.mu.Unlock()
	c.emit()

	result, err := c.source.GetAll(ctx, params)
	c.settle(generation, result, err)

	return err
}

// Refetch repeats the previous fetch.
func (c *Cache) Refetch(ctx context.Context) error {
	return c.Fetch(ctx, nil)
}

// Refresh implements Target.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.Refetch(ctx)
}

// ApplyLocal implements Target.
func (c *Cache) ApplyLocal(_ context.Context, w Write) error {
	c.mu.Lock()
	c.all = patchRecords(c.all, w)
	c.recomputeLocked()
	c.mu.Unlock()
	c.emit()

	return nil
}

// Search sets the text query and recomputes the view. It does not contact
// the backend.
func (c *Cache) Search(query string) {
	c.updateFilter(func(f *FilterState) {
		f.Query = query
	})
}

// SearchRemote replaces the collection with the backend search results for
// query and clears the local text query.
func (c *Cache) SearchRemote(ctx context.Context, query string) error {
	c.mu.Lock()
	c.filter.Query = ""
	generation := c.begin()
	c.mu.Unlock()
	c.emit()

	result, err := c.source.Search(ctx, query)
	c.settle(generation, result, err)

	return err
}

// SetCategories replaces the category lookup and recomputes the view.
func (c *Cache) SetCategories(categories []admin.Record) {
	lookup := NewCategoryLookup(categories)

	c.mu.Lock()
	c.opts.categories = lookup
	c.recomputeLocked()
	c.mu.Unlock()
	c.emit()
}

// CreateItem creates a record and reconciles the collection. The returned
// error is the write's own; a failed reconciliation shows up in the
// snapshot.
func (c *Cache) CreateItem(ctx context.Context, data any) (admin.Record, error) {
	record, err := c.source.Create(ctx, data)
	if err != nil {
		return nil, err
	}

	c.afterWrite(ctx, Write{Kind: WriteCreate, ID: record.ID(), Record: record})

	return record, nil
}

// UpdateItem replaces a record and reconciles the collection.
func (c *Cache) UpdateItem(ctx context.Context, id string, data any) (admin.Record, error) {
	record, err := c.source.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}

	c.afterWrite(ctx, Write{Kind: WriteUpdate, ID: id, Record: record})

	return record, nil
}

// PatchItem partially updates a record and reconciles the collection.
func (c *Cache) PatchItem(ctx context.Context, id string, data any) (admin.Record, error) {
	record, err := c.source.Patch(ctx, id, data)
	if err != nil {
		return nil, err
	}

	c.afterWrite(ctx, Write{Kind: WritePatch, ID: id, Record: record})

	return record, nil
}

// DeleteItem deletes a record and reconciles the collection.
func (c *Cache) DeleteItem(ctx context.Context, id string) error {
	err := c.source.Delete(ctx, id)
	if err != nil {
		return err
	}

	c.afterWrite(ctx, Write{Kind: WriteDelete, ID: id})

	return nil
}

func (c *Cache) afterWrite(ctx context.Context, w Write) {
	err := c.opts.policy.AfterWrite(ctx, c.target, w)
	if err != nil {
		c.log("Reconciling after write failed", map[string]interface{}{
			"entity": c.source.Entity(),
			"write":  string(w.Kind),
			"id":     w.ID,
			"error":  err.Error(),
		})
	}
}

func (c *Cache) updateFilter(fn func(*FilterState)) {
	c.mu.Lock()
	fn(&c.filter)
	c.recomputeLocked()
	c.mu.Unlock()
	c.emit()
}

// begin issues a new generation. Callers hold mu.
func (c *Cache) begin() uint64 {
	c.generation++
	c.status = StatusLoading

	return c.generation
}

// settle applies a fetch outcome unless a newer fetch was issued.
func (c *Cache) settle(generation uint64, result admin.ListResult, err error) {
	c.mu.Lock()

	if generation != c.generation {
		latest := c.generation
		c.mu.Unlock()

		if c.opts.logger != nil {
			c.opts.logger.Debug("Discarding stale response", map[string]interface{}{
				"entity":     c.source.Entity(),
				"generation": generation,
				"latest":     latest,
			})
		}

		return
	}

	if err != nil {
		c.status = StatusErrored
		c.err = err
	} else {
		data := result.Data
		if data == nil {
			data = []admin.Record{}
		}

		c.status = StatusReady
		c.err = nil
		c.all = data
		c.pagination = result.Pagination
		c.warnings = result.Warnings
		c.recomputeLocked()
	}

	warnings := c.warnings
	c.mu.Unlock()

	if err == nil {
		for _, warning := range warnings {
			c.log("Unexpected response shape", map[string]interface{}{
				"entity": c.source.Entity(),
				"error":  warning.Error(),
			})
		}
	}

	c.emit()
}

// recomputeLocked rebuilds the derived view. Callers hold mu.
func (c *Cache) recomputeLocked() {
	if c.opts.filter != nil {
		c.view = c.opts.filter(c.all, c.filter)
	} else {
		c.view = ApplyFilter(c.all, c.filter.Query, c.opts.categories)
	}

	if c.view == nil {
		c.view = []admin.Record{}
	}
}

func (c *Cache) snapshotLocked() Snapshot {
	return Snapshot{
		Status:     c.status,
		Items:      c.view,
		All:        c.all,
		Pagination: c.pagination,
		Err:        c.err,
		Warnings:   c.warnings,
		Filter:     c.filter,
		Generation: c.generation,
	}
}

func (c *Cache) emit() {
	if c.opts.onChange == nil {
		return
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.opts.onChange(c.Snapshot())
}

func (c *Cache) log(msg string, fields map[string]interface{}) {
	if c.opts.logger != nil {
		c.opts.logger.Warn(msg, fields)
	}
}
