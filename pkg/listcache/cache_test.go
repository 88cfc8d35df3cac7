package listcache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

func riceProducts() *fakeOrders {
	return newFakeOrders(
		admin.Record{"id": "1", "name": "Rice"},
		admin.Record{"id": "2", "name": "Wheat Flour"},
		admin.Record{"id": "3", "name": "rice cake"},
	)
}

func TestNew_AutoFetch(t *testing.T) {
	t.Parallel()

	source := riceProducts()
	cache := New(context.Background(), source, WithParams(map[string]string{"limit": "50"}))

	snapshot := cache.Snapshot()
	assert.Equal(t, StatusReady, snapshot.Status)
	assert.Len(t, snapshot.All, 3)
	assert.Equal(t, snapshot.All, snapshot.Items)
	assert.Equal(t, uint64(1), snapshot.Generation)
	assert.Equal(t, map[string]string{"limit": "50"}, source.lastParams)
}

func TestNew_WithoutAutoFetch(t *testing.T) {
	t.Parallel()

	source := riceProducts()
	cache := New(context.Background(), source, WithAutoFetch(false))

	assert.Equal(t, StatusIdle, cache.Status())
	assert.NotNil(t, cache.Items())
	assert.Empty(t, cache.Items())

	listCalls, _ := source.counts()
	assert.Zero(t, listCalls)
}

func TestCache_Search(t *testing.T) {
	t.Parallel()

	cache := New(context.Background(), riceProducts())

	cache.Search("rice")
	assert.Equal(t, []string{"1", "3"}, ids(cache.Items()))
	assert.Len(t, cache.All(), 3)
	assert.Equal(t, "rice", cache.Filter().Query)

	cache.Search("")
	assert.Len(t, cache.Items(), 3)
}

func TestCache_SearchReappliedAfterFetch(t *testing.T) {
	t.Parallel()

	source := riceProducts()
	cache := New(context.Background(), source)
	cache.Search("rice")

	_, err := cache.CreateItem(context.Background(), map[string]any{"name": "Brown Rice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, ids(cache.Items()))

	_, err = cache.UpdateItem(context.Background(), "1", map[string]any{"name": "Millet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, ids(cache.Items()))
}

func TestCache_FetchErrorKeepsCollection(t *testing.T) {
	t.Parallel()

	source := riceProducts()
	cache := New(context.Background(), source)

	source.mu.Lock()
	source.listErr = errBackend
	source.mu.Unlock()

	err := cache.Refetch(context.Background())
	require.ErrorIs(t, err, errBackend)

	snapshot := cache.Snapshot()
	assert.Equal(t, StatusErrored, snapshot.Status)
	require.ErrorIs(t, snapshot.Err, errBackend)
	assert.Len(t, snapshot.All, 3)

	source.mu.Lock()
	source.listErr = nil
	source.mu.Unlock()

	require.NoError(t, cache.Refetch(context.Background()))
	assert.Equal(t, StatusReady, cache.Status())
	assert.NoError(t, cache.Err())
}

func TestCache_ShapeWarning(t *testing.T) {
	t.Parallel()

	source := riceProducts()
	warning := &admin.ShapeMismatchError{Entity: "Order", Expected: "array", Got: "object"}
	source.listPayload = &admin.ListResult{Data: []admin.Record{}, Warnings: []error{warning}}

	logger := &recordingLogger{}
	cache := New(context.Background(), source, WithLogger(logger))

	snapshot := cache.Snapshot()
	assert.Equal(t, StatusReady, snapshot.Status)
	assert.Empty(t, snapshot.All)
	assert.Equal(t, []error{warning}, snapshot.Warnings)
	assert.Contains(t, logger.messages(), "Unexpected response shape")
}

// After every successful write the held collection equals what an
// independent GetAll returns.
func TestCache_WritesRefetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := riceProducts()
	cache := New(ctx, source)

	assertInSync := func() {
		t.Helper()

		fresh, err := source.GetAll(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, fresh.Data, cache.All())
	}

	created, err := cache.CreateItem(ctx, map[string]any{"name": "X"})
	require.NoError(t, err)
	assert.Equal(t, "X", created.String("name"))
	assert.Len(t, cache.All(), 4)
	assertInSync()

	_, err = cache.UpdateItem(ctx, "2", map[string]any{"name": "Semolina"})
	require.NoError(t, err)
	assertInSync()

	_, err = cache.PatchItem(ctx, "3", map[string]any{"price": json.Number("20")})
	require.NoError(t, err)
	assertInSync()

	require.NoError(t, cache.DeleteItem(ctx, "1"))
	assert.Len(t, cache.All(), 3)
	assertInSync()

	listCalls, _ := source.counts()
	assert.Equal(t, 1+4+4, listCalls)
}

func TestCache_FailedWriteLeavesCollection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := riceProducts()
	cache := New(ctx, source)
	before := cache.Snapshot()

	source.mu.Lock()
	source.writeErr = errBackend
	source.mu.Unlock()

	record, err := cache.CreateItem(ctx, map[string]any{"name": "X"})
	require.ErrorIs(t, err, errBackend)
	assert.Nil(t, record)

	require.ErrorIs(t, cache.DeleteItem(ctx, "1"), errBackend)

	after := cache.Snapshot()
	assert.Equal(t, before.All, after.All)
	assert.Equal(t, before.Generation, after.Generation)
}

func TestCache_WriteSucceedsWhenRefetchFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := riceProducts()
	logger := &recordingLogger{}
	cache := New(ctx, source, WithLogger(logger))

	source.mu.Lock()
	source.listErr = errBackend
	source.mu.Unlock()

	_, err := cache.CreateItem(ctx, map[string]any{"name": "X"})
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, cache.Status())
	assert.Len(t, cache.All(), 3)
	assert.Contains(t, logger.messages(), "Reconciling after write failed")
}

func TestCache_LocalPatchPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := riceProducts()
	cache := New(ctx, source, WithWritePolicy(LocalPatchPolicy{}))

	_, err := cache.CreateItem(ctx, map[string]any{"name": "Barley"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(cache.All()))

	_, err = cache.PatchItem(ctx, "2", map[string]any{"name": "Durum"})
	require.NoError(t, err)
	assert.Equal(t, "Durum", cache.All()[1].String("name"))

	require.NoError(t, cache.DeleteItem(ctx, "1"))
	assert.Equal(t, []string{"2", "3", "4"}, ids(cache.All()))

	listCalls, _ := source.counts()
	assert.Equal(t, 1, listCalls)
}

func TestCache_SearchRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := New(ctx, riceProducts())
	cache.Search("wheat")

	require.NoError(t, cache.SearchRemote(ctx, "RICE"))

	snapshot := cache.Snapshot()
	assert.Equal(t, []string{"1", "3"}, ids(snapshot.All))
	assert.Equal(t, snapshot.All, snapshot.Items)
	assert.Empty(t, snapshot.Filter.Query)
}

func TestCache_SetCategories(t *testing.T) {
	t.Parallel()

	source := newFakeOrders(
		admin.Record{"id": "1", "name": "Basmati", "categoryId": "c1"},
		admin.Record{"id": "2", "name": "Cookies", "categoryId": "c2"},
	)
	cache := New(context.Background(), source)
	cache.Search("grain")
	assert.Empty(t, cache.Items())

	cache.SetCategories([]admin.Record{{"id": "c1", "name": "Grains"}})
	assert.Equal(t, []string{"1"}, ids(cache.Items()))
}

// A response that lands after a newer fetch was issued is discarded.
func TestCache_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := riceProducts()
	cache := New(ctx, source, WithAutoFetch(false))

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	source.beforeList = func(call int) {
		if call == 1 {
			close(firstStarted)
			<-releaseFirst

			source.mu.Lock()
			source.records = []admin.Record{{"id": "stale"}}
			source.mu.Unlock()
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		assert.NoError(t, cache.Fetch(ctx, nil))
	}()

	<-firstStarted
	require.NoError(t, cache.Fetch(ctx, nil))
	assert.Equal(t, []string{"1", "2", "3"}, ids(cache.All()))

	close(releaseFirst)
	wg.Wait()

	snapshot := cache.Snapshot()
	assert.Equal(t, []string{"1", "2", "3"}, ids(snapshot.All))
	assert.Equal(t, StatusReady, snapshot.Status)
	assert.Equal(t, uint64(2), snapshot.Generation)
}

func TestCache_OnChange(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		statuses []Status
	)

	cache := New(context.Background(), riceProducts(), WithOnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()

		statuses = append(statuses, s.Status)
	}))

	cache.Search("rice")

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []Status{StatusLoading, StatusReady, StatusReady}, statuses)
}

func TestCache_WithFilter(t *testing.T) {
	t.Parallel()

	onlyFirst := func(records []admin.Record, _ FilterState) []admin.Record {
		if len(records) == 0 {
			return records
		}

		return records[:1]
	}

	cache := New(context.Background(), riceProducts(), WithFilter(onlyFirst))
	assert.Equal(t, []string{"1"}, ids(cache.Items()))
	assert.Len(t, cache.All(), 3)
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.msgs = append(l.msgs, msg)
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.msgs...)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.record(msg) }
