package client

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/storeadmin/internal/auth"
	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// AuthClient implements admin.AuthClient against the admin auth endpoints.
type AuthClient struct {
	httpClient *http.Client
	tokens     admin.TokenStore
	notifier   admin.Notifier
}

// NewAuthClient creates a new auth client.
func NewAuthClient(httpClient *http.Client, tokens admin.TokenStore, notifier admin.Notifier) *AuthClient {
	if notifier == nil {
		notifier = admin.NopNotifier{}
	}

	return &AuthClient{
		httpClient: httpClient,
		tokens:     tokens,
		notifier:   notifier,
	}
}

// Login implements admin.AuthClient.Login.
func (c *AuthClient) Login(ctx context.Context, username, password string) (*admin.Token, error) {
	body := map[string]string{"username": username, "password": password}

	return c.authenticate(ctx, "/auth/admin/login", body, "Login failed", admin.ErrLoginFailed)
}

// Signup implements admin.AuthClient.Signup.
func (c *AuthClient) Signup(ctx context.Context, req *admin.SignupRequest) (*admin.Token, error) {
	return c.authenticate(ctx, "/auth/admin/signup", req, "Signup failed", admin.ErrSignupFailed)
}

// Logout implements admin.AuthClient.Logout.
func (c *AuthClient) Logout() {
	c.tokens.Clear()
}

// LoggedIn implements admin.AuthClient.LoggedIn.
func (c *AuthClient) LoggedIn() bool {
	return c.tokens.Get().Valid()
}

func (c *AuthClient) authenticate(ctx context.Context, path string, body any, generic string, sentinel error) (*admin.Token, error) {
	resp, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		opErr := newOperationError("auth", "Admin", generic, err)
		c.notifier.Notify(opErr.Message, admin.NotificationError)

		return nil, opErr
	}

	parsed := gjson.ParseBytes(resp.Body)
	if !parsed.Get("success").Bool() {
		message := admin.BackendMessage(resp.Body)
		if message == "" {
			message = generic
		}

		c.notifier.Notify(message, admin.NotificationError)

		return nil, &admin.OperationError{Op: "auth", Entity: "Admin", Message: message, StatusCode: resp.StatusCode, Err: sentinel}
	}

	accessToken := firstString(parsed, "token", "data.token", "accessToken", "data.accessToken")
	if accessToken == "" {
		c.notifier.Notify(generic, admin.NotificationError)

		return nil, &admin.OperationError{
			Op: "auth", Entity: "Admin", Message: generic,
			Err: fmt.Errorf("%w: %w", sentinel, admin.ErrMissingToken),
		}
	}

	token := auth.NewToken(accessToken)
	c.tokens.Set(token)

	return token, nil
}

func firstString(parsed gjson.Result, paths ...string) string {
	for _, path := range paths {
		if value := parsed.Get(path); value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}

	return ""
}
