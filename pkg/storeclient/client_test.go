package storeclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
	"github.com/fivetwenty-io/storeadmin/pkg/storeclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := storeclient.New(context.Background(), nil)
		require.ErrorIs(t, err, admin.ErrConfigRequired)

		_, err = storeclient.New(context.Background(), &admin.Config{})
		require.ErrorIs(t, err, admin.ErrAPIEndpointRequired)
	})

	t.Run("normalizes endpoint", func(t *testing.T) {
		t.Parallel()

		config := &admin.Config{APIEndpoint: "localhost:3000/api/"}

		client, err := storeclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "http://localhost:3000/api", config.APIEndpoint)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"localhost:3000/api":          "http://localhost:3000/api",
		"http://localhost:3000/api/":  "http://localhost:3000/api",
		"https://shop.example.com//":  "https://shop.example.com",
		" https://shop.example.com ": "https://shop.example.com",
	}

	for in, want := range tests {
		assert.Equal(t, want, storeclient.NormalizeEndpoint(in), in)
	}
}

func TestNewWithEndpoint(t *testing.T) {
	t.Parallel()

	client, err := storeclient.NewWithEndpoint(context.Background(), "https://shop.example.com/api")
	require.NoError(t, err)
	assert.False(t, client.Auth().LoggedIn())
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	var authorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := storeclient.NewWithToken(context.Background(), server.URL, "test-token")
	require.NoError(t, err)
	assert.True(t, client.Auth().LoggedIn())

	_, err = client.Users().GetAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", authorization)
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if r.URL.Path != "/auth/admin/login" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))

			return
		}

		_, _ = w.Write([]byte(`{"success":true,"token":"opaque-session"}`))
	}))
	defer server.Close()

	client, err := storeclient.NewWithPassword(context.Background(), server.URL, "admin", "secret")
	require.NoError(t, err)
	assert.True(t, client.Auth().LoggedIn())

	_, err = storeclient.NewWithPassword(context.Background(), server.URL, "admin", "wrong")
	require.Error(t, err)
	assert.True(t, admin.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid credentials")
}
