package client

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// PromosClient implements admin.PromosClient.
type PromosClient struct {
	*ResourceClient
}

type promoPosition struct {
	ID    any `json:"id"`
	Order int `json:"order"`
}

type reorderRequest struct {
	Promos []promoPosition `json:"promos"`
}

// NewPromosClient creates a new promos client.
func NewPromosClient(httpClient *http.Client, notifier admin.Notifier, logger admin.Logger) *PromosClient {
	return &PromosClient{
		ResourceClient: NewResourceClient(httpClient, ResourceDefinition{Entity: "Promo", Path: "/promos"}, notifier, logger),
	}
}

// Reorder implements admin.PromosClient.Reorder. Numeric ids are sent as
// JSON numbers since the backend keys promos by integer.
func (c *PromosClient) Reorder(ctx context.Context, ids []string) error {
	req := reorderRequest{Promos: make([]promoPosition, 0, len(ids))}

	for index, id := range ids {
		var value any = id
		if _, err := strconv.ParseUint(id, 10, 64); err == nil {
			value = json.Number(id)
		}

		req.Promos = append(req.Promos, promoPosition{ID: value, Order: index + 1})
	}

	_, err := c.httpClient.Put(ctx, c.def.Path+"/reorder", req)
	if err != nil {
		return c.fail("reorder", "Failed to reorder promos", err)
	}

	c.notifier.Notify("Promo order updated successfully", admin.NotificationSuccess)

	return nil
}
