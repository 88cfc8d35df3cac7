package admin

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	orderIDMin          = 100000
	orderIDSpan         = 900000
	defaultOrderRetries = 3
)

var orderIDPattern = regexp.MustCompile(`^\d{6}$`)

// GenerateOrderID returns a random customer-facing 6-digit order id.
func GenerateOrderID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(orderIDSpan))
	if err != nil {
		return fmt.Sprintf("%06d", orderIDMin)
	}

	return fmt.Sprintf("%d", orderIDMin+n.Int64())
}

// IsValidOrderID reports whether id is exactly six digits.
func IsValidOrderID(id string) bool {
	return orderIDPattern.MatchString(id)
}

// FormatOrderID renders an order id for display.
func FormatOrderID(id string) string {
	if id == "" {
		return "N/A"
	}

	return "#" + id
}

// OrderDisplayID returns the best available identifier of an order.
func OrderDisplayID(order Record) string {
	for _, field := range []string{"orderId", "orderNumber", "id"} {
		if v := order.String(field); v != "" {
			return v
		}
	}

	return "Unknown"
}

// CreateOrderWithRetry creates an order, regenerating its "orderId" when the
// backend rejects it as a duplicate. Other failures are returned at once.
// data is not modified.
func CreateOrderWithRetry(ctx context.Context, orders ResourceClient, data Record, maxRetries int) (Record, error) {
	if maxRetries <= 0 {
		maxRetries = defaultOrderRetries
	}

	payload := data.Clone()
	if payload == nil {
		payload = Record{}
	}

	if !payload.Has("orderId") {
		payload["orderId"] = GenerateOrderID()
	}

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		created, err := orders.Create(ctx, payload)
		if err == nil {
			return created, nil
		}

		lastErr = err
		if !isDuplicateOrder(err) {
			return nil, err
		}

		payload = payload.Clone()
		payload["orderId"] = GenerateOrderID()
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrOrderIDCollision, maxRetries, lastErr)
}

func isDuplicateOrder(err error) bool {
	if IsConflict(err) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate") ||
		errors.Is(err, ErrOrderIDCollision)
}
