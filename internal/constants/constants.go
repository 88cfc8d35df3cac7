package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// DefaultOrderCreateRetries bounds order id regeneration on collisions.
	DefaultOrderCreateRetries = 3
)

// API defaults.
const (
	// DefaultAPIEndpoint is used when no endpoint is configured.
	DefaultAPIEndpoint = "http://localhost:3000/api"

	// DefaultUserAgent identifies the client to the backend.
	DefaultUserAgent = "storeadmin-go/1.0.0"

	// ContentTypeJSON is sent and accepted on every request.
	ContentTypeJSON = "application/json"
)

// UI and display constants.
const (
	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DescriptionTruncationLimit caps long text columns in tables.
	DescriptionTruncationLimit = 40
)

// Format constants.
const (
	// FormatTable for tabular output.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
