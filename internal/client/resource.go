package client

import (
	"context"
	"errors"
	"net/url"

	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// ResourceDefinition names a backend collection.
type ResourceDefinition struct {
	// Entity is the singular display name, e.g. "Product".
	Entity string
	// Plural is used in list messages; defaults to Entity + "s".
	Plural string
	// Path is relative to the API endpoint, e.g. "/products".
	Path string
}

// ResourceClient implements admin.ResourceClient for one collection.
type ResourceClient struct {
	httpClient *http.Client
	def        ResourceDefinition
	notifier   admin.Notifier
	logger     admin.Logger
}

// NewResourceClient creates a client for def. notifier and logger may be nil.
func NewResourceClient(httpClient *http.Client, def ResourceDefinition, notifier admin.Notifier, logger admin.Logger) *ResourceClient {
	if def.Plural == "" {
		def.Plural = def.Entity + "s"
	}

	if notifier == nil {
		notifier = admin.NopNotifier{}
	}

	return &ResourceClient{
		httpClient: httpClient,
		def:        def,
		notifier:   notifier,
		logger:     logger,
	}
}

// Entity implements admin.ResourceClient.Entity.
func (c *ResourceClient) Entity() string {
	return c.def.Entity
}

// Path implements admin.ResourceClient.Path.
func (c *ResourceClient) Path() string {
	return c.def.Path
}

// GetAll implements admin.ResourceClient.GetAll.
func (c *ResourceClient) GetAll(ctx context.Context, params map[string]string) (admin.ListResult, error) {
	return c.list(ctx, "getAll", c.def.Path, toValues(params), "Failed to fetch "+c.def.Plural)
}

// GetByID implements admin.ResourceClient.GetByID.
func (c *ResourceClient) GetByID(ctx context.Context, id string) (admin.Record, error) {
	resp, err := c.httpClient.Get(ctx, c.itemPath(id), nil)
	if err != nil {
		return nil, c.fail("getById", "Failed to fetch "+c.def.Entity, err)
	}

	return c.decodeRecord(resp.Body), nil
}

// Create implements admin.ResourceClient.Create.
func (c *ResourceClient) Create(ctx context.Context, data any) (admin.Record, error) {
	resp, err := c.httpClient.Post(ctx, c.def.Path, data)
	if err != nil {
		return nil, c.fail("create", "Failed to create "+c.def.Entity, err)
	}

	c.notifier.Notify(c.def.Entity+" created successfully", admin.NotificationSuccess)

	return c.decodeRecord(resp.Body), nil
}

// Update implements admin.ResourceClient.Update.
func (c *ResourceClient) Update(ctx context.Context, id string, data any) (admin.Record, error) {
	resp, err := c.httpClient.Put(ctx, c.itemPath(id), data)
	if err != nil {
		return nil, c.fail("update", "Failed to update "+c.def.Entity, err)
	}

	c.notifier.Notify(c.def.Entity+" updated successfully", admin.NotificationSuccess)

	return c.decodeRecord(resp.Body), nil
}

// Patch implements admin.ResourceClient.Patch.
func (c *ResourceClient) Patch(ctx context.Context, id string, data any) (admin.Record, error) {
	resp, err := c.httpClient.Patch(ctx, c.itemPath(id), data)
	if err != nil {
		return nil, c.fail("patch", "Failed to update "+c.def.Entity, err)
	}

	c.notifier.Notify(c.def.Entity+" updated successfully", admin.NotificationSuccess)

	return c.decodeRecord(resp.Body), nil
}

// Delete implements admin.ResourceClient.Delete.
func (c *ResourceClient) Delete(ctx context.Context, id string) error {
	_, err := c.httpClient.Delete(ctx, c.itemPath(id))
	if err != nil {
		return c.fail("delete", "Failed to delete "+c.def.Entity, err)
	}

	c.notifier.Notify(c.def.Entity+" deleted successfully", admin.NotificationSuccess)

	return nil
}

// Search implements admin.ResourceClient.Search.
func (c *ResourceClient) Search(ctx context.Context, query string) (admin.ListResult, error) {
	return c.list(ctx, "search", c.def.Path+"/search", url.Values{"q": []string{query}}, "Failed to search "+c.def.Plural)
}

func (c *ResourceClient) list(ctx context.Context, op, path string, query url.Values, failure string) (admin.ListResult, error) {
	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return admin.EmptyList(), c.fail(op, failure, err)
	}

	return c.decodeList(resp.Body), nil
}

func (c *ResourceClient) decodeList(body []byte) admin.ListResult {
	envelope := admin.UnwrapEnvelope(body)
	records, mismatch := admin.DecodeList(c.def.Entity, envelope.Payload)

	result := admin.ListResult{Data: records, Pagination: envelope.Pagination}
	if mismatch != nil {
		c.warnShape(mismatch)
		result.Warnings = append(result.Warnings, mismatch)
	}

	return result
}

func (c *ResourceClient) decodeRecord(body []byte) admin.Record {
	envelope := admin.UnwrapEnvelope(body)

	record, mismatch := admin.DecodeRecord(c.def.Entity, envelope.Payload)
	if mismatch != nil {
		c.warnShape(mismatch)
	}

	return record
}

func (c *ResourceClient) itemPath(id string) string {
	return c.def.Path + "/" + url.PathEscape(id)
}

// fail converts a transport error into an OperationError and notifies it.
// The backend's own message takes precedence over the generic one.
func (c *ResourceClient) fail(op, generic string, err error) error {
	opErr := newOperationError(op, c.def.Entity, generic, err)

	c.notifier.Notify(opErr.Message, admin.NotificationError)

	if c.logger != nil {
		c.logger.Debug(generic, map[string]interface{}{
			"resource": c.def.Path,
			"op":       op,
			"status":   opErr.StatusCode,
			"error":    err.Error(),
		})
	}

	return opErr
}

func (c *ResourceClient) warnShape(mismatch *admin.ShapeMismatchError) {
	if c.logger == nil {
		return
	}

	c.logger.Warn("Unexpected response shape", map[string]interface{}{
		"resource": c.def.Path,
		"expected": mismatch.Expected,
		"got":      mismatch.Got,
	})
}

func newOperationError(op, entity, generic string, err error) *admin.OperationError {
	opErr := &admin.OperationError{
		Op:      op,
		Entity:  entity,
		Message: generic,
		Err:     err,
	}

	respErr := &admin.ResponseError{}
	if errors.As(err, &respErr) {
		opErr.StatusCode = respErr.StatusCode
		if msg := respErr.Message(); msg != "" {
			opErr.Message = msg
		}
	}

	return opErr
}

func toValues(params map[string]string) url.Values {
	if len(params) == 0 {
		return nil
	}

	values := make(url.Values, len(params))
	for key, value := range params {
		values.Set(key, value)
	}

	return values
}
