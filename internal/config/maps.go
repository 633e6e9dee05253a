package config

const (
	MapsProviderNone   = "none"
	MapsProviderGoogle = "google"
	MapsProviderMapbox = "mapbox"
)

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	Region     string            `yaml:"region"`
	Language   string            `yaml:"language"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
	Mapbox     *MapboxConfig     `yaml:"mapbox"`
}

type GoogleMapsConfig struct {
	APIKey string `yaml:"api_key"`
}

type MapboxConfig struct {
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

// Enabled reports whether a provider is selected and has credentials.
func (c *MapsConfig) Enabled() bool {
	switch c.Provider {
	case MapsProviderGoogle:
		return c.GoogleMaps.APIKey != ""
	case MapsProviderMapbox:
		return c.Mapbox.AccessToken != ""
	}
	return false
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", MapsProviderGoogle),
		Region:   getEnv("MAPS_REGION", "cl"),
		Language: getEnv("MAPS_LANGUAGE", "es"),
		GoogleMaps: &GoogleMapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Mapbox: &MapboxConfig{
			AccessToken: getEnv("MAPBOX_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		},
	}
}
