package geocode

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder resolves a free-text address to coordinates. Callers treat it as
// best-effort and fall back to (0,0) on failure.
type Geocoder interface {
	Geocode(address string) (lat, lon float64, err error)
}

// Config holds geocoding provider details.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPGeocoder queries a Nominatim-style search endpoint.
type HTTPGeocoder struct {
	cfg    Config
	client *http.Client
}

// NewHTTPGeocoder creates a geocoder client with a bounded request timeout.
func NewHTTPGeocoder(cfg Config) *HTTPGeocoder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &HTTPGeocoder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to coordinates using the first search hit.
func (g *HTTPGeocoder) Geocode(address string) (float64, float64, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.cfg.BaseURL, url.QueryEscape(address))
	resp, err := g.client.Get(endpoint)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no results for address %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in geocoder response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in geocoder response: %w", err)
	}
	return lat, lon, nil
}

const earthRadiusMeters = 6371000

// Haversine returns the straight-line distance in meters between two
// coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
