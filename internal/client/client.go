package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/storeadmin/internal/auth"
	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// Resource definitions of the plain CRUD collections.
var (
	CategoriesResource = ResourceDefinition{Entity: "Category", Plural: "Categories", Path: "/categories"}
	ProductsResource   = ResourceDefinition{Entity: "Product", Path: "/products"}
	UsersResource      = ResourceDefinition{Entity: "User", Path: "/users"}
	InventoryResource  = ResourceDefinition{Entity: "Inventory", Plural: "Inventory", Path: "/inventory"}
)

// Client implements the admin.Client interface.
type Client struct {
	httpClient *http.Client
	tokens     admin.TokenStore
	notifier   admin.Notifier
	logger     admin.Logger

	categories *ResourceClient
	products   *ResourceClient
	users      *ResourceClient
	inventory  *ResourceClient
	orders     *OrdersClient
	grains     *GrainsClient
	coupons    *CouponsClient
	promos     *PromosClient
	auth       *AuthClient

	registry map[string]admin.ResourceClient
}

var _ admin.Client = (*Client)(nil)

// New creates a new admin API client from a normalized config.
func New(config *admin.Config) (*Client, error) {
	if config == nil {
		return nil, admin.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, admin.ErrAPIEndpointRequired
	}

	tokens := config.TokenStore
	if tokens == nil {
		tokens = auth.NewTokenStore()
	}

	if config.AccessToken != "" {
		tokens.Set(auth.NewToken(config.AccessToken))
	}

	httpClient := http.NewClient(config.APIEndpoint, tokens, createHTTPClientOptions(config)...)

	return NewWithHTTPClient(httpClient, tokens, config.Notifier, config.Logger), nil
}

// NewWithHTTPClient assembles a client around an existing transport.
func NewWithHTTPClient(httpClient *http.Client, tokens admin.TokenStore, notifier admin.Notifier, logger admin.Logger) *Client {
	if tokens == nil {
		tokens = auth.NewTokenStore()
	}

	if notifier == nil {
		notifier = admin.NopNotifier{}
	}

	client := &Client{
		httpClient: httpClient,
		tokens:     tokens,
		notifier:   notifier,
		logger:     logger,
	}

	client.initializeResourceClients()

	return client
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *admin.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithUnauthorizedHandler(config.OnUnauthorized),
		http.WithInterceptors(config.Interceptors),
		http.WithHTTPClient(config.HTTPClient),
		http.WithTimeout(config.HTTPTimeout),
		http.WithUserAgent(config.UserAgent),
		http.WithRateLimit(config.RateLimit, config.RateBurst),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.RetryMax > 0 {
		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	return httpOpts
}

func (c *Client) initializeResourceClients() {
	c.categories = NewResourceClient(c.httpClient, CategoriesResource, c.notifier, c.logger)
	c.products = NewResourceClient(c.httpClient, ProductsResource, c.notifier, c.logger)
	c.users = NewResourceClient(c.httpClient, UsersResource, c.notifier, c.logger)
	c.inventory = NewResourceClient(c.httpClient, InventoryResource, c.notifier, c.logger)
	c.orders = NewOrdersClient(c.httpClient, c.notifier, c.logger)
	c.grains = NewGrainsClient(c.httpClient, c.notifier, c.logger)
	c.coupons = NewCouponsClient(c.httpClient, c.notifier, c.logger)
	c.promos = NewPromosClient(c.httpClient, c.notifier, c.logger)
	c.auth = NewAuthClient(c.httpClient, c.tokens, c.notifier)

	c.registry = map[string]admin.ResourceClient{
		"categories": c.categories,
		"products":   c.products,
		"users":      c.users,
		"inventory":  c.inventory,
		"orders":     c.orders,
		"grains":     c.grains,
		"coupons":    c.coupons,
		"promos":     c.promos,
	}
}

// Categories implements admin.Client.Categories.
func (c *Client) Categories() admin.ResourceClient { return c.categories }

// Products implements admin.Client.Products.
func (c *Client) Products() admin.ResourceClient { return c.products }

// Users implements admin.Client.Users.
func (c *Client) Users() admin.ResourceClient { return c.users }

// Inventory implements admin.Client.Inventory.
func (c *Client) Inventory() admin.ResourceClient { return c.inventory }

// Orders implements admin.Client.Orders.
func (c *Client) Orders() admin.OrdersClient { return c.orders }

// Grains implements admin.Client.Grains.
func (c *Client) Grains() admin.GrainsClient { return c.grains }

// Coupons implements admin.Client.Coupons.
func (c *Client) Coupons() admin.CouponsClient { return c.coupons }

// Promos implements admin.Client.Promos.
func (c *Client) Promos() admin.PromosClient { return c.promos }

// Auth implements admin.Client.Auth.
func (c *Client) Auth() admin.AuthClient { return c.auth }

// Resource implements admin.Client.Resource. Names are case-insensitive and
// the singular form is accepted.
func (c *Client) Resource(name string) (admin.ResourceClient, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if client, ok := c.registry[key]; ok {
		return client, nil
	}

	for _, candidate := range []string{key + "s", strings.TrimSuffix(key, "y") + "ies"} {
		if client, ok := c.registry[candidate]; ok {
			return client, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", admin.ErrUnknownResource, name)
}

// ResourceNames lists the registered resource names in sorted order.
func (c *Client) ResourceNames() []string {
	names := make([]string, 0, len(c.registry))
	for name := range c.registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Summary implements admin.Client.Summary. Users, products, orders and
// inventory are fetched concurrently; an inventory failure only marks the
// summary as lacking stock data.
func (c *Client) Summary(ctx context.Context) (*admin.DashboardSummary, error) {
	var users, products, orders, inventory admin.ListResult

	inventoryFailed := false
	quietInventory := NewResourceClient(c.httpClient, InventoryResource, nil, c.logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() (err error) {
		users, err = c.users.GetAll(groupCtx, nil)

		return err
	})
	group.Go(func() (err error) {
		products, err = c.products.GetAll(groupCtx, nil)

		return err
	})
	group.Go(func() (err error) {
		orders, err = c.orders.GetAll(groupCtx, nil)

		return err
	})
	group.Go(func() error {
		var err error

		inventory, err = quietInventory.GetAll(groupCtx, nil)
		if err != nil {
			inventoryFailed = true
		}

		return nil
	})

	err := group.Wait()
	if err != nil {
		return nil, &admin.OperationError{Op: "summary", Message: "Failed to fetch dashboard data", Err: err}
	}

	summary := admin.BuildSummary(users.Data, products.Data, orders.Data, inventory.Data)
	summary.InventoryUnavailable = inventoryFailed

	return summary, nil
}
