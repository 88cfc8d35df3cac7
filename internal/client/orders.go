package client

import (
	"context"
	"net/url"

	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// OrdersClient implements admin.OrdersClient.
type OrdersClient struct {
	*ResourceClient
}

// NewOrdersClient creates a new orders client.
func NewOrdersClient(httpClient *http.Client, notifier admin.Notifier, logger admin.Logger) *OrdersClient {
	return &OrdersClient{
		ResourceClient: NewResourceClient(httpClient, ResourceDefinition{Entity: "Order", Path: "/orders"}, notifier, logger),
	}
}

// UpdateStatus implements admin.OrdersClient.UpdateStatus. Transition rules
// are enforced by the backend.
func (c *OrdersClient) UpdateStatus(ctx context.Context, id, status string) (admin.Record, error) {
	resp, err := c.httpClient.Patch(ctx, c.itemPath(id)+"/status", map[string]string{"status": status})
	if err != nil {
		return nil, c.fail("updateStatus", "Failed to update order status", err)
	}

	c.notifier.Notify("Order status updated to "+status, admin.NotificationSuccess)

	return c.decodeRecord(resp.Body), nil
}

// GetStats implements admin.OrdersClient.GetStats.
func (c *OrdersClient) GetStats(ctx context.Context) (*admin.OrderStats, error) {
	resp, err := c.httpClient.Get(ctx, c.def.Path+"/stats", nil)
	if err != nil {
		return nil, c.fail("getStats", "Failed to fetch order statistics", err)
	}

	return admin.ParseOrderStats(admin.UnwrapEnvelope(resp.Body).Payload), nil
}

// GetByPhone implements admin.OrdersClient.GetByPhone.
func (c *OrdersClient) GetByPhone(ctx context.Context, phone string) (admin.ListResult, error) {
	return c.list(ctx, "getByPhone", c.def.Path+"/customer/"+url.PathEscape(phone), nil, "Failed to fetch orders by phone")
}
