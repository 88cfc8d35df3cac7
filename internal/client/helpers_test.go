package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/storeadmin/internal/auth"
	internalhttp "github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

type notification struct {
	Message string
	Kind    admin.NotificationKind
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	items []notification
}

func (n *recordingNotifier) Notify(message string, kind admin.NotificationKind) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append(n.items, notification{Message: message, Kind: kind})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]notification(nil), n.items...)
}

func (n *recordingNotifier) last() notification {
	items := n.all()
	if len(items) == 0 {
		return notification{}
	}

	return items[len(items)-1]
}

// writeJSON writes body as a JSON response with status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

// decodeBody decodes a request body into a map.
func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}

	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

	return body
}

// newTestClient starts server and returns an aggregate client bound to it.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingNotifier) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	notifier := &recordingNotifier{}
	tokens := auth.NewTokenStore()

	return NewWithHTTPClient(internalhttp.NewClient(server.URL, tokens), tokens, notifier, nil), notifier
}

// unreachableClient returns a client whose transport always fails to
// connect.
func unreachableClient(t *testing.T) (*Client, *recordingNotifier) {
	t.Helper()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	notifier := &recordingNotifier{}

	return NewWithHTTPClient(internalhttp.NewClient(url, nil), nil, notifier, nil), notifier
}
