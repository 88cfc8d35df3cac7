package storeclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/storeadmin/internal/client"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// New creates a store administration client.
func New(ctx context.Context, config *admin.Config) (admin.Client, error) {
	if config == nil {
		return nil, admin.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, admin.ErrAPIEndpointRequired
	}

	config.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	if needsLogin(config, c.Auth()) {
		_, err = c.Auth().Login(ctx, config.Username, config.Password)
		if err != nil {
			return nil, fmt.Errorf("logging in as %s: %w", config.Username, err)
		}
	}

	return c, nil
}

// NormalizeEndpoint trims trailing slashes and adds http:// when no scheme is
// present.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	return endpoint
}

// needsLogin checks if credentials are configured and no usable token is held.
func needsLogin(config *admin.Config, auth admin.AuthClient) bool {
	return config.Username != "" && config.Password != "" && !auth.LoggedIn()
}

// NewWithEndpoint creates a client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (admin.Client, error) {
	return New(ctx, &admin.Config{APIEndpoint: endpoint})
}

// NewWithToken creates a client with an access token.
func NewWithToken(ctx context.Context, endpoint, token string) (admin.Client, error) {
	return New(ctx, &admin.Config{APIEndpoint: endpoint, AccessToken: token})
}

// NewWithPassword creates a client that logs in with administrator
// credentials.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (admin.Client, error) {
	return New(ctx, &admin.Config{APIEndpoint: endpoint, Username: username, Password: password})
}
