package maps

import (
	"context"
	"errors"
)

// ErrNoResults is returned when the provider finds nothing for a query.
var ErrNoResults = errors.New("maps: no geocoding results")

// Geocoder turns addresses into coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error)
	Name() string
}

type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

// Best returns the first (most relevant) result.
func (r *GeocodeResponse) Best() (GeocodeResult, error) {
	if r == nil || len(r.Results) == 0 {
		return GeocodeResult{}, ErrNoResults
	}
	return r.Results[0], nil
}

type GeocodeResult struct {
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"formatted_address"`
	Locality    string   `json:"locality,omitempty"`
	Coordinates Location `json:"geometry"`
	Types       []string `json:"types"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Options narrows geocoding to a country and sets the response language.
// BaseURL overrides the provider endpoint.
type Options struct {
	Region   string
	Language string
	BaseURL  string
}
