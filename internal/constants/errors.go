package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIEndpoint     = errors.New("no API endpoint configured, use 'storeadmin config set api <url>'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrInvalidJWTFormat  = errors.New("invalid JWT format")
	ErrNoExpirationClaim = errors.New("no expiration claim found")
)

// Validation errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrDataRequired        = errors.New("one of --data or --file is required")
	ErrDataConflict        = errors.New("--data and --file are mutually exclusive")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrPasswordRequired    = errors.New("password is required")
	ErrBatchFailed         = errors.New("one or more batch operations failed")
)
