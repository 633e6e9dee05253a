package config

import (
	"time"

	"floreria/internal/utils"
)

type DeliveryConfig struct {
	Timezone        string        `yaml:"timezone"`
	CatalogFile     string        `yaml:"catalog_file"`
	WatchCatalog    bool          `yaml:"watch_catalog"`
	QuoteTTL        time.Duration `yaml:"quote_ttl"`
	QuoteRetention  time.Duration `yaml:"quote_retention"`
	ResolveRadiusKM float64       `yaml:"resolve_radius_km"`
	GeocodeCacheTTL time.Duration `yaml:"geocode_cache_ttl"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

func loadDeliveryConfig() *DeliveryConfig {
	return &DeliveryConfig{
		Timezone:        getEnv("DELIVERY_TIMEZONE", utils.DefaultTimeZone),
		CatalogFile:     getEnv("DELIVERY_CATALOG_FILE", ""),
		WatchCatalog:    getEnvAsBool("DELIVERY_CATALOG_WATCH", false),
		QuoteTTL:        getEnvAsDuration("DELIVERY_QUOTE_TTL", utils.DefaultQuoteTTL),
		QuoteRetention:  getEnvAsDuration("DELIVERY_QUOTE_RETENTION", utils.DefaultQuoteRetention),
		ResolveRadiusKM: getEnvAsFloat64("DELIVERY_RESOLVE_RADIUS_KM", utils.DefaultResolveRadiusKM),
		GeocodeCacheTTL: getEnvAsDuration("DELIVERY_GEOCODE_CACHE_TTL", utils.GeocodeCacheTTL),
		RequestTimeout:  getEnvAsDuration("DELIVERY_REQUEST_TIMEOUT", utils.DeliveryRequestTimeout),
	}
}
