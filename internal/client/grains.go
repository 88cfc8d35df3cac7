package client

import (
	"context"

	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// GrainsClient implements admin.GrainsClient.
type GrainsClient struct {
	*ResourceClient
}

// NewGrainsClient creates a new grains client.
func NewGrainsClient(httpClient *http.Client, notifier admin.Notifier, logger admin.Logger) *GrainsClient {
	return &GrainsClient{
		ResourceClient: NewResourceClient(httpClient, ResourceDefinition{Entity: "Grain", Path: "/grains"}, notifier, logger),
	}
}

// GetAllIncludingInactive implements admin.GrainsClient.GetAllIncludingInactive.
func (c *GrainsClient) GetAllIncludingInactive(ctx context.Context, params map[string]string) (admin.ListResult, error) {
	return c.list(ctx, "getAllIncludingInactive", c.def.Path+"/all", toValues(params), "Failed to fetch all Grains")
}

// GetStats implements admin.GrainsClient.GetStats.
func (c *GrainsClient) GetStats(ctx context.Context) (admin.Record, error) {
	resp, err := c.httpClient.Get(ctx, c.def.Path+"/stats", nil)
	if err != nil {
		return nil, c.fail("getStats", "Failed to fetch Grain statistics", err)
	}

	return c.decodeRecord(resp.Body), nil
}

// Deactivate implements admin.GrainsClient.Deactivate.
func (c *GrainsClient) Deactivate(ctx context.Context, id string) (admin.Record, error) {
	resp, err := c.httpClient.Patch(ctx, c.itemPath(id)+"/deactivate", nil)
	if err != nil {
		return nil, c.fail("deactivate", "Failed to deactivate Grain", err)
	}

	c.notifier.Notify("Grain deactivated successfully", admin.NotificationSuccess)

	return c.decodeRecord(resp.Body), nil
}
