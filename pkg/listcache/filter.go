package listcache

import (
	"strings"
	"time"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// DateLayout is the format accepted for date range bounds.
const DateLayout = "2006-01-02"

// FilterState is the input of the derived view. Generic caches use Query
// only.
type FilterState struct {
	Query    string `json:"query,omitempty"    yaml:"query,omitempty"`
	Status   string `json:"status,omitempty"   yaml:"status,omitempty"`
	DateFrom string `json:"dateFrom,omitempty" yaml:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"   yaml:"dateTo,omitempty"`
}

// IsZero reports whether no predicate is active.
func (f FilterState) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && f.Status == "" && f.DateFrom == "" && f.DateTo == ""
}

// FilterFunc computes the derived view. It must not modify records.
type FilterFunc func(records []admin.Record, filter FilterState) []admin.Record

// CategoryLookup maps a category id to its display name.
type CategoryLookup map[string]string

// NewCategoryLookup indexes category records by id.
func NewCategoryLookup(categories []admin.Record) CategoryLookup {
	lookup := make(CategoryLookup, len(categories))

	for _, category := range categories {
		if id := category.ID(); id != "" {
			lookup[id] = category.String("name")
		}
	}

	return lookup
}

// Order fields used by text search, status and date predicates. Aliases are
// checked in order and the first non-empty value wins.
var (
	orderSearchFields    = []string{"customerName", "customerEmail", "customerPhone", "orderId", "orderNumber", "id"}
	orderStatusFields    = []string{"orderStatus", "status"}
	orderTimestampFields = []string{"createdAt", "orderDate", "orderTimestamp"}
)

// ApplyFilter keeps the records where any of name, description, id, price,
// the active/inactive state or the category name contains query, ignoring
// case. A blank query returns records unchanged.
func ApplyFilter(records []admin.Record, query string, categories CategoryLookup) []admin.Record {
	term := normalizeQuery(query)
	if term == "" {
		return records
	}

	out := make([]admin.Record, 0, len(records))

	for _, record := range records {
		if matchesAny(term, recordCandidates(record, categories)) {
			out = append(out, record)
		}
	}

	return out
}

// ApplyOrderFilter applies the text, status, date-from and date-to
// predicates in that order. Bounds are calendar dates in loc (UTC when nil);
// date-to includes the whole day. A bound that does not parse as DateLayout
// is ignored. Orders without a readable timestamp fail any active date
// predicate.
func ApplyOrderFilter(records []admin.Record, filter FilterState, loc *time.Location) []admin.Record {
	if loc == nil {
		loc = time.UTC
	}

	term := normalizeQuery(filter.Query)
	from, hasFrom := startOfDay(filter.DateFrom, loc)
	to, hasTo := endOfDay(filter.DateTo, loc)

	if term == "" && filter.Status == "" && !hasFrom && !hasTo {
		return records
	}

	out := make([]admin.Record, 0, len(records))

	for _, order := range records {
		if term != "" && !matchesAny(term, fieldStrings(order, orderSearchFields)) {
			continue
		}

		if filter.Status != "" && OrderStatus(order) != filter.Status {
			continue
		}

		if hasFrom || hasTo {
			at, ok := OrderTimestamp(order, loc)
			if !ok || (hasFrom && at.Before(from)) || (hasTo && at.After(to)) {
				continue
			}
		}

		out = append(out, order)
	}

	return out
}

// OrderStatus returns the first non-empty of orderStatus and status.
func OrderStatus(order admin.Record) string {
	return firstString(order, orderStatusFields)
}

// OrderTimestamp returns the first non-empty of createdAt, orderDate and
// orderTimestamp, read in loc when it carries no zone.
func OrderTimestamp(order admin.Record, loc *time.Location) (time.Time, bool) {
	for _, field := range orderTimestampFields {
		if order.String(field) == "" {
			continue
		}

		return admin.ParseTimestampIn(order[field], loc)
	}

	return time.Time{}, false
}

// ParseDate validates a date range bound.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, admin.ErrInvalidDate
	}

	return t, nil
}

func recordCandidates(record admin.Record, categories CategoryLookup) []string {
	candidates := fieldStrings(record, []string{"name", "description", "id", "price"})

	if active, ok := record["isActive"].(bool); ok {
		if active {
			candidates = append(candidates, "active")
		} else {
			candidates = append(candidates, "inactive")
		}
	}

	if categoryID := record.String("categoryId"); categoryID != "" && categories != nil {
		if name, ok := categories[categoryID]; ok {
			candidates = append(candidates, name)
		}
	}

	return candidates
}

func fieldStrings(record admin.Record, fields []string) []string {
	out := make([]string, 0, len(fields))

	for _, field := range fields {
		if value := record.String(field); value != "" {
			out = append(out, value)
		}
	}

	return out
}

func firstString(record admin.Record, fields []string) string {
	for _, field := range fields {
		if value := record.String(field); value != "" {
			return value
		}
	}

	return ""
}

func matchesAny(term string, candidates []string) bool {
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), term) {
			return true
		}
	}

	return false
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func startOfDay(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	t, err := ParseDate(value, loc)

	return t, err == nil
}

func endOfDay(value string, loc *time.Location) (time.Time, bool) {
	t, ok := startOfDay(value, loc)
	if !ok {
		return time.Time{}, false
	}

	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
}
