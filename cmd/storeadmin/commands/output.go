package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// column is a table column read from the first non-null of its fields.
type column struct {
	Header string
	Fields []string
}

func col(header string, fields ...string) column {
	return column{Header: header, Fields: fields}
}

var resourceColumns = map[string][]column{
	"categories": {col("ID", "id"), col("Name", "name"), col("Description", "description")},
	"products": {
		col("ID", "id"), col("Name", "name"), col("Price", "price"),
		col("Category", "categoryId"), col("Active", "isActive"),
	},
	"users": {col("ID", "id"), col("Username", "username"), col("Email", "email"), col("Role", "role")},
	"inventory": {
		col("ID", "id"), col("Product", "productId"),
		col("Available", "availableStock", "stock"), col("Alert", "lowStockAlert"),
	},
	"orders": {
		col("ID", "id"), col("Order", "orderId", "orderNumber"), col("Customer", "customerName"),
		col("Phone", "customerPhone"), col("Status", "orderStatus", "status"),
		col("Total", "grandTotal", "totalAmount"), col("Created", "createdAt", "orderDate"),
	},
	"grains": {col("ID", "id"), col("Name", "name"), col("Price", "price"), col("Active", "isActive")},
	"coupons": {
		col("ID", "id"), col("Code", "code"), col("Type", "discountType"),
		col("Value", "discountValue"), col("Active", "isActive"),
	},
	"promos": {col("ID", "id"), col("Title", "title", "name"), col("Position", "position"), col("Active", "isActive")},
}

func outputFormat() string {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable
	}

	return format
}

func validOutputFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

// renderValue writes v as indented JSON or as YAML.
func renderValue(w io.Writer, format string, v any) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(v)
	case constants.FormatYAML:
		// Going through JSON keeps json.Number and decimal values numeric.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}

		var generic any

		err = yaml.Unmarshal(data, &generic)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}

		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(generic)
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

// renderList writes records in the configured output format.
func renderList(w io.Writer, resource string, records []admin.Record) error {
	format := outputFormat()
	if format != constants.FormatTable {
		return renderValue(w, format, records)
	}

	if len(records) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found\n", resource)

		return nil
	}

	columns := columnsFor(resource, records)

	headers := make([]any, 0, len(columns))
	for _, c := range columns {
		headers = append(headers, c.Header)
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	for _, record := range records {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, cell(record, c))
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderRecord writes one record as a field/value table or in the configured
// format.
func renderRecord(w io.Writer, record admin.Record) error {
	format := outputFormat()
	if format != constants.FormatTable {
		return renderValue(w, format, record)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	for _, key := range sortedKeys(record) {
		_ = table.Append([]string{key, admin.Stringify(record[key])})
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func columnsFor(resource string, records []admin.Record) []column {
	if columns, ok := resourceColumns[resource]; ok {
		return columns
	}

	keys := sortedKeys(records[0])
	columns := make([]column, 0, len(keys))

	for _, key := range keys {
		columns = append(columns, col(key, key))
	}

	return columns
}

func cell(record admin.Record, c column) string {
	value, ok := record.FirstNonNull(c.Fields...)
	if !ok {
		return ""
	}

	return truncate(admin.Stringify(value), constants.DescriptionTruncationLimit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-3]) + "..."
}

func sortedKeys(record admin.Record) []string {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
