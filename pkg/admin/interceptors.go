package admin

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Request is the outgoing request as seen by interceptors. Path is relative
// to the API endpoint and may carry a query string.
type Request struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
	// Started is set by the transport before the request interceptors run.
	Started time.Time
}

// Response is the received response as seen by interceptors. Error is set
// when no response arrived.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Failed reports whether the call failed at the transport, returned a
// non-2xx status, or answered 2xx with a `success: false` envelope.
func (r *Response) Failed() bool {
	if r.Error != nil || r.StatusCode >= http.StatusBadRequest {
		return true
	}

	success := gjson.GetBytes(r.Body, "success")

	return success.Exists() && success.Type == gjson.False
}

// RequestInterceptor may rewrite a request before it is sent. An error
// aborts the request.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor observes a completed call.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain runs interceptors in registration order. It is safe to
// register interceptors while requests are in flight.
type InterceptorChain struct {
	mu       sync.RWMutex
	request  []RequestInterceptor
	response []ResponseInterceptor
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.request = append(c.request, interceptor)
}

// AddResponseInterceptor appends a response interceptor.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.response = append(c.response, interceptor)
}

// ExecuteRequestInterceptors runs the request interceptors until one fails.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	c.mu.RLock()
	interceptors := slices.Clone(c.request)
	c.mu.RUnlock()

	for _, interceptor := range interceptors {
		if err := interceptor(ctx, req); err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs the response interceptors until one fails.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	c.mu.RLock()
	interceptors := slices.Clone(c.response)
	c.mu.RUnlock()

	for _, interceptor := range interceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// LoggingResponseInterceptor logs every call against its route. Failed calls
// are logged at error level with the backend's own message when the body
// carries one.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"route":       Route(req.Method, req.Path),
			"status_code": resp.StatusCode,
		}

		if !req.Started.IsZero() {
			fields["duration"] = time.Since(req.Started).String()
		}

		if !resp.Failed() {
			logger.Debug("API call", fields)

			return nil
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
		}

		if message := BackendMessage(resp.Body); message != "" {
			fields["backend_message"] = message
		}

		logger.Error("API call failed", fields)

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// recordSegment matches path segments that name a single record: numeric
// ids, order numbers, phone numbers and 24 character object ids.
var recordSegment = regexp.MustCompile(`^(\+?\d+|[0-9a-fA-F]{24})$`)

// Route collapses record ids in path so calls against one resource share a
// key, e.g. "PATCH /orders/:id/status".
func Route(method, path string) string {
	path, _, _ = strings.Cut(path, "?")

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if recordSegment.MatchString(segment) {
			segments[i] = ":id"
		}
	}

	return method + " " + strings.Join(segments, "/")
}

// Metrics aggregates the calls made to one route.
type Metrics struct {
	TotalRequests int64
	// TotalErrors counts transport failures, non-2xx statuses and
	// `success: false` envelopes.
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector aggregates call metrics per route.
type MetricsCollector struct {
	mu     sync.Mutex
	routes map[string]*Metrics
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{routes: make(map[string]*Metrics)}
}

// GetMetrics returns a copy of the metrics for route, or nil.
func (m *MetricsCollector) GetMetrics(route string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.routes[route]
	if !ok {
		return nil
	}

	snapshot := *metrics

	return &snapshot
}

// Endpoints returns the routes seen so far in lexical order.
func (m *MetricsCollector) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Sorted(maps.Keys(m.routes))
}

func (m *MetricsCollector) record(route string, started time.Time, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.routes[route]
	if !ok {
		metrics = &Metrics{}
		m.routes[route] = metrics
	}

	now := time.Now()
	metrics.TotalRequests++
	metrics.LastRequestTime = now

	if !started.IsZero() {
		metrics.TotalLatency += now.Sub(started)
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}
}

// MetricsResponseInterceptor feeds every completed call into collector.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		collector.record(Route(req.Method, req.Path), req.Started, resp.Failed())

		return nil
	}
}
