package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
	opts   Options
}

func NewGoogleMapsProvider(apiKey string, opts Options) (*GoogleMapsProvider, error) {
	clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
		opts:   opts,
	}, nil
}

func (g *GoogleMapsProvider) Name() string {
	return "google"
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	req := &maps.GeocodingRequest{
		Address:  address,
		Region:   g.opts.Region,
		Language: g.opts.Language,
	}
	if g.opts.Region != "" {
		req.Components = map[maps.Component]string{
			maps.ComponentCountry: strings.ToUpper(g.opts.Region),
		}
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}

	return &GeocodeResponse{Results: convertGoogleResults(resp)}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.opts.Language,
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	return &GeocodeResponse{Results: convertGoogleResults(resp)}, nil
}

func convertGoogleResults(resp []maps.GeocodingResult) []GeocodeResult {
	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID:  result.PlaceID,
			Address:  result.FormattedAddress,
			Locality: googleLocality(result.AddressComponents),
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}
	return results
}

// googleLocality picks the commune from the address components. In Chile
// the commune is reported as administrative_area_level_3, with locality as
// a fallback.
func googleLocality(components []maps.AddressComponent) string {
	var locality string
	for _, c := range components {
		for _, t := range c.Types {
			switch t {
			case "administrative_area_level_3":
				return c.LongName
			case "locality":
				if locality == "" {
					locality = c.LongName
				}
			}
		}
	}
	return locality
}
