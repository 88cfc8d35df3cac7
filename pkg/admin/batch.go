package admin

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Batch operation types.
const (
	BatchCreate = "create"
	BatchUpdate = "update"
	BatchPatch  = "patch"
	BatchDelete = "delete"
	BatchGet    = "get"
)

const (
	defaultBatchConcurrency = 5
	defaultBatchTimeout     = 30 * time.Second
)

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID       string `json:"id"                 yaml:"id"`
	Type     string `json:"type"               yaml:"type"`
	Resource string `json:"resource"           yaml:"resource"`
	RecordID string `json:"recordId,omitempty" yaml:"recordId,omitempty"`
	Data     Record `json:"data,omitempty"     yaml:"data,omitempty"`

	Callback func(result *BatchResult) `json:"-" yaml:"-"`
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string        `json:"id"              yaml:"id"`
	Success  bool          `json:"success"         yaml:"success"`
	Data     Record        `json:"data,omitempty"  yaml:"data,omitempty"`
	Error    error         `json:"-"               yaml:"-"`
	Duration time.Duration `json:"duration"        yaml:"duration"`
}

// BatchExecutor executes batch operations against named resources.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     defaultBatchTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are returned in input order;
// an individual failure never aborts the batch.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) []BatchResult {
	results := make([]BatchResult, len(operations))

	var group errgroup.Group

	group.SetLimit(b.concurrency)

	for index, operation := range operations {
		group.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	client, err := b.client.Resource(operation.Resource)
	if err != nil {
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedResourceType, operation.Resource)

		return result
	}

	if operation.Type != BatchCreate && operation.RecordID == "" {
		result.Error = fmt.Errorf("%w for %s %s", ErrRecordIDRequired, operation.Type, operation.Resource)

		return result
	}

	switch operation.Type {
	case BatchCreate:
		result.Data, result.Error = client.Create(ctx, operation.Data)
	case BatchUpdate:
		result.Data, result.Error = client.Update(ctx, operation.RecordID, operation.Data)
	case BatchPatch:
		result.Data, result.Error = client.Patch(ctx, operation.RecordID, operation.Data)
	case BatchDelete:
		result.Error = client.Delete(ctx, operation.RecordID)
	case BatchGet:
		result.Data, result.Error = client.GetByID(ctx, operation.RecordID)
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedOperation, operation.Type)
	}

	result.Success = result.Error == nil

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// Add appends an arbitrary operation.
func (b *BatchBuilder) Add(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// AddCreate adds a creation operation.
func (b *BatchBuilder) AddCreate(id, resource string, data Record) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Type: BatchCreate, Resource: resource, Data: data})
}

// AddUpdate adds a full update operation.
func (b *BatchBuilder) AddUpdate(id, resource, recordID string, data Record) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Type: BatchUpdate, Resource: resource, RecordID: recordID, Data: data})
}

// AddPatch adds a partial update operation.
func (b *BatchBuilder) AddPatch(id, resource, recordID string, data Record) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Type: BatchPatch, Resource: resource, RecordID: recordID, Data: data})
}

// AddDelete adds a deletion operation.
func (b *BatchBuilder) AddDelete(id, resource, recordID string) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Type: BatchDelete, Resource: resource, RecordID: recordID})
}

// AddGet adds a fetch operation.
func (b *BatchBuilder) AddGet(id, resource, recordID string) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Type: BatchGet, Resource: resource, RecordID: recordID})
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
