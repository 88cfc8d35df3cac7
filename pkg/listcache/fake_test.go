package listcache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

var errBackend = errors.New("backend failure")

// fakeOrders is an in-memory admin.OrdersClient.
type fakeOrders struct {
	mu       sync.Mutex
	records  []admin.Record
	nextID   int
	listErr  error
	writeErr error
	statsErr error
	// listPayload, when set, replaces the collection returned by GetAll.
	listPayload *admin.ListResult
	// beforeList runs before GetAll returns, with the 1-based call number.
	beforeList func(call int)

	listCalls  int
	statsCalls int
	lastParams map[string]string
}

func newFakeOrders(records ...admin.Record) *fakeOrders {
	return &fakeOrders{records: records, nextID: len(records) + 1}
}

func (f *fakeOrders) Entity() string { return "Order" }
func (f *fakeOrders) Path() string   { return "/orders" }

func (f *fakeOrders) GetAll(_ context.Context, params map[string]string) (admin.ListResult, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	f.lastParams = params
	hook := f.beforeList
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return admin.EmptyList(), f.listErr
	}

	if f.listPayload != nil {
		return *f.listPayload, nil
	}

	return admin.ListResult{Data: append([]admin.Record{}, f.records...)}, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (admin.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.ID() == id {
			return record, nil
		}
	}

	return nil, errBackend
}

func (f *fakeOrders) Create(_ context.Context, data any) (admin.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	record := toRecord(data).Clone()
	record["id"] = strconv.Itoa(f.nextID)
	f.nextID++
	f.records = append(f.records, record)

	return record, nil
}

func (f *fakeOrders) Update(_ context.Context, id string, data any) (admin.Record, error) {
	return f.write(id, func(admin.Record) admin.Record {
		record := toRecord(data).Clone()
		record["id"] = id

		return record
	})
}

func (f *fakeOrders) Patch(_ context.Context, id string, data any) (admin.Record, error) {
	return f.write(id, func(current admin.Record) admin.Record {
		record := current.Clone()
		for k, v := range toRecord(data) {
			record[k] = v
		}

		return record
	})
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id, status string) (admin.Record, error) {
	return f.Patch(ctx, id, map[string]any{"status": status})
}

func (f *fakeOrders) write(id string, fn func(admin.Record) admin.Record) (admin.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	for i, record := range f.records {
		if record.ID() == id {
			f.records[i] = fn(record)

			return f.records[i], nil
		}
	}

	return nil, errBackend
}

func (f *fakeOrders) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}

	for i, record := range f.records {
		if record.ID() == id {
			f.records = append(f.records[:i:i], f.records[i+1:]...)

			return nil
		}
	}

	return errBackend
}

func (f *fakeOrders) Search(_ context.Context, query string) (admin.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := admin.EmptyList()

	for _, record := range f.records {
		if strings.Contains(strings.ToLower(record.String("name")), strings.ToLower(query)) {
			result.Data = append(result.Data, record)
		}
	}

	return result, nil
}

func (f *fakeOrders) GetStats(_ context.Context) (*admin.OrderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statsCalls++

	if f.statsErr != nil {
		return nil, f.statsErr
	}

	revenue := decimal.Zero
	for _, record := range f.records {
		revenue = revenue.Add(admin.DecimalField(record, "grandTotal"))
	}

	return &admin.OrderStats{TotalOrders: int64(len(f.records)), TotalRevenue: revenue}, nil
}

func (f *fakeOrders) GetByPhone(_ context.Context, phone string) (admin.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := admin.EmptyList()

	for _, record := range f.records {
		if record.String("customerPhone") == phone {
			result.Data = append(result.Data, record)
		}
	}

	return result, nil
}

func (f *fakeOrders) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listCalls, f.statsCalls
}

func ids(records []admin.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.ID())
	}

	return out
}

func toRecord(data any) admin.Record {
	switch v := data.(type) {
	case admin.Record:
		return v
	case map[string]any:
		return v
	default:
		return admin.Record{}
	}
}
