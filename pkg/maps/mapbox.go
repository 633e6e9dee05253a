package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type MapboxProvider struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
	opts        Options
}

func NewMapboxProvider(accessToken string, opts Options) *MapboxProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.mapbox.com"
	}
	return &MapboxProvider{
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		opts:        opts,
	}
}

func (m *MapboxProvider) Name() string {
	return "mapbox"
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	PlaceType []string  `json:"place_type"`
	Center    []float64 `json:"center"`
	Context   []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"context"`
}

func (m *MapboxProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	query := url.Values{}
	if m.opts.Region != "" {
		query.Set("country", strings.ToLower(m.opts.Region))
	}
	return m.search(ctx, url.PathEscape(address), query)
}

func (m *MapboxProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	coords := strconv.FormatFloat(lng, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	return m.search(ctx, coords, url.Values{})
}

func (m *MapboxProvider) search(ctx context.Context, query string, params url.Values) (*GeocodeResponse, error) {
	params.Set("access_token", m.accessToken)
	if m.opts.Language != "" {
		params.Set("language", m.opts.Language)
	}
	apiURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s", m.baseURL, query, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapbox API error (status %d): %s", resp.StatusCode, string(body))
	}

	var mapboxResp mapboxResponse
	if err := json.Unmarshal(body, &mapboxResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	results := make([]GeocodeResult, 0, len(mapboxResp.Features))
	for _, feature := range mapboxResp.Features {
		if len(feature.Center) < 2 {
			continue
		}
		results = append(results, GeocodeResult{
			PlaceID:  feature.ID,
			Address:  feature.PlaceName,
			Locality: feature.locality(),
			Coordinates: Location{
				Latitude:  feature.Center[1],
				Longitude: feature.Center[0],
			},
			Types: feature.PlaceType,
		})
	}

	return &GeocodeResponse{Results: results}, nil
}

// locality is the "place" the feature belongs to, which Mapbox uses for
// Chilean communes.
func (f mapboxFeature) locality() string {
	for _, t := range f.PlaceType {
		if t == "place" {
			return f.Text
		}
	}
	for _, c := range f.Context {
		if strings.HasPrefix(c.ID, "place.") {
			return c.Text
		}
	}
	return ""
}
