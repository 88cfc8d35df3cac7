package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client is the main interface for the store administration API.
type Client interface {
	Categories() ResourceClient
	Products() ResourceClient
	Users() ResourceClient
	Inventory() ResourceClient
	Orders() OrdersClient
	Grains() GrainsClient
	Coupons() CouponsClient
	Promos() PromosClient
	Auth() AuthClient

	// Resource returns the client registered under a resource name such as
	// "products" or "orders".
	Resource(name string) (ResourceClient, error)

	// Summary aggregates the dashboard overview from several resources.
	Summary(ctx context.Context) (*DashboardSummary, error)
}

// ResourceClient performs CRUD and search on one backend collection.
//
// Failures never panic and never leave the caller without a usable value:
// list operations return EmptyList() alongside the error, single-record
// operations return a nil Record. Every failure is also reported to the
// configured Notifier.
type ResourceClient interface {
	// Entity is the singular display name ("Product").
	Entity() string
	// Path is the collection path relative to the API endpoint ("/products").
	Path() string

	GetAll(ctx context.Context, params map[string]string) (ListResult, error)
	GetByID(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, data any) (Record, error)
	Update(ctx context.Context, id string, data any) (Record, error)
	Patch(ctx context.Context, id string, data any) (Record, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) (ListResult, error)
}

// OrdersClient adds order specific operations.
type OrdersClient interface {
	ResourceClient

	UpdateStatus(ctx context.Context, id, status string) (Record, error)
	GetStats(ctx context.Context) (*OrderStats, error)
	GetByPhone(ctx context.Context, phone string) (ListResult, error)
}

// GrainsClient adds grain specific operations.
type GrainsClient interface {
	ResourceClient

	GetAllIncludingInactive(ctx context.Context, params map[string]string) (ListResult, error)
	GetStats(ctx context.Context) (Record, error)
	Deactivate(ctx context.Context, id string) (Record, error)
}

// CouponsClient adds coupon specific operations.
type CouponsClient interface {
	ResourceClient

	// Validate always returns a non-nil result; transport failures are
	// folded into an invalid result carrying a NETWORK_ERROR code.
	Validate(ctx context.Context, req *CouponValidationRequest) (*CouponValidation, error)
	Apply(ctx context.Context, req *CouponApplyRequest) (Record, error)
	AdditionalItemCoupons(ctx context.Context, orderValue decimal.Decimal) (ListResult, error)
}

// PromosClient adds promo specific operations.
type PromosClient interface {
	ResourceClient

	// Reorder assigns display positions 1..n in the order of ids.
	Reorder(ctx context.Context, ids []string) error
}

// AuthClient handles administrator sessions.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (*Token, error)
	Signup(ctx context.Context, req *SignupRequest) (*Token, error)
	Logout()
	LoggedIn() bool
}

// TokenStore holds the bearer token attached to requests.
type TokenStore interface {
	Get() *Token
	Set(token *Token)
	Clear()
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config holds the configuration for the admin client.
type Config struct {
	// APIEndpoint: base URL of the admin API (e.g., "http://localhost:3000/api").
	// storeclient.New trims a trailing slash and adds "http://" when no scheme
	// is present.
	APIEndpoint string

	// AccessToken: optional static bearer token seeded into TokenStore.
	AccessToken string
	// TokenStore: where the bearer token lives. Defaults to an in-memory store.
	TokenStore TokenStore
	// Username and Password: administrator credentials. storeclient.New logs
	// in with them when the token store holds no valid token.
	Username string
	Password string
	// OnUnauthorized: called after a 401 response cleared the token store.
	// Typically used to send the user back to login.
	OnUnauthorized func()

	// Notifier: receives operation outcomes. Defaults to a no-op.
	Notifier Notifier
	// Logger: optional structured logger used by the HTTP layer and caches.
	Logger Logger
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Interceptors: optional hooks run around every HTTP exchange.
	Interceptors *InterceptorChain

	// Transport tuning
	// HTTPTimeout: per-request timeout; defaults to 30s.
	HTTPTimeout time.Duration
	// HTTPClient: optional base client whose Transport is reused.
	HTTPClient *http.Client
	// UserAgent: optional custom User-Agent header.
	UserAgent string
	// RetryMax: retries for connection errors, 429 and 5xx responses.
	// Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit: requests per second; zero means unlimited.
	RateLimit float64
	RateBurst int
}
