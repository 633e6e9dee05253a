package utils

import "time"

// Application Constants
const (
	AppName    = "FloreriaDelivery"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage = "es"
	DefaultCurrency = "CLP"
	DefaultTimeZone = "America/Santiago"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Delivery
	DefaultMinAdvanceHours = 3
	AdvanceBookingWindow   = 24 * time.Hour
	DefaultQuoteTTL        = 30 * time.Minute
	DefaultQuoteRetention  = 30 * 24 * time.Hour
	DefaultResolveRadiusKM = 6.0
	GeocodeCacheTTL        = 24 * time.Hour
	MaxCommuneNameLength   = 100
	DeliveryRequestTimeout = 10 * time.Second
	DateLayout             = "2006-01-02"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
)

// Cache Keys
const (
	CacheKeyPrefix     = "floreria"
	CacheQuotePrefix   = "delivery_quote:"
	CacheGeocodePrefix = "geocode:"
)

// Event Types
const (
	EventQuoteCreated    = "quote_created"
	EventQuoteRejected   = "quote_rejected"
	EventCommuneResolved = "commune_resolved"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
