package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Record is a single backend entity. Its shape is resource specific; the only
// field the library relies on is "id".
//
// Records handed out by caches are shared and must be treated as read-only.
type Record map[string]any

// ID returns the stringified "id" field, or "" when absent.
func (r Record) ID() string {
	return Stringify(r["id"])
}

// String returns the stringified value of field, or "" when absent or null.
func (r Record) String(field string) string {
	return Stringify(r[field])
}

// Has reports whether field is present and non-null.
func (r Record) Has(field string) bool {
	v, ok := r[field]

	return ok && v != nil
}

// FirstNonNull returns the value of the first listed field that is present
// and non-null.
func (r Record) FirstNonNull(fields ...string) (any, bool) {
	for _, field := range fields {
		if v, ok := r[field]; ok && v != nil {
			return v, true
		}
	}

	return nil, false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// Stringify renders a decoded JSON scalar the way the backend wrote it.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// PageInfo is the pagination block of a structured list envelope.
type PageInfo struct {
	Page  int `json:"page"  yaml:"page"`
	Limit int `json:"limit" yaml:"limit"`
	Total int `json:"total" yaml:"total"`
	Pages int `json:"pages" yaml:"pages"`
}

// ListResult is the normalized outcome of a list operation.
type ListResult struct {
	Data       []Record  `json:"data"                 yaml:"data"`
	Pagination *PageInfo `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	// Warnings carries non-fatal anomalies such as a ShapeMismatchError.
	Warnings []error `json:"-" yaml:"-"`
}

// EmptyList returns the safe default list outcome.
func EmptyList() ListResult {
	return ListResult{Data: []Record{}}
}

// Token is a bearer token held by a TokenStore.
type Token struct {
	AccessToken string    `json:"access_token"         yaml:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero" yaml:"expires_at,omitempty"`
}

// tokenExpiryBuffer treats tokens about to expire as already expired.
const tokenExpiryBuffer = 30 * time.Second

// Valid reports whether the token is present and not about to expire.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(tokenExpiryBuffer).Before(t.ExpiresAt)
}

// SignupRequest is the body of the admin signup endpoint.
type SignupRequest struct {
	Username   string `json:"username"   yaml:"username"`
	Email      string `json:"email"      yaml:"email"`
	Password   string `json:"password"   yaml:"password"`
	SecretCode string `json:"secretCode" yaml:"secretCode"`
}

// decodeJSON decodes data into out keeping numbers as json.Number.
func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	err := decoder.Decode(out)
	if err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	return nil
}
