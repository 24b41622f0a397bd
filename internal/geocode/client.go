package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/courier-orders/internal/models"
)

// Feature is one result from the geocoding provider.
type Feature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lon, lat]
}

// Usable reports whether the feature carries everything a suggestion needs:
// a formatted address and a 2-component coordinate pair.
func (f Feature) Usable() bool {
	return f.PlaceName != "" && len(f.Center) == 2
}

// Candidate converts the feature into an address suggestion.
func (f Feature) Candidate() models.Candidate {
	c := models.Candidate{
		Label:            f.Text,
		Sublabel:         f.PlaceName,
		FormattedAddress: f.PlaceName,
	}
	if len(f.Center) == 2 {
		c.Coordinates = &models.Coordinates{Lon: f.Center[0], Lat: f.Center[1]}
	}
	return c
}

// Client is the provider interface used by the resolver.
type Client interface {
	// Forward looks up features for a free-text query.
	Forward(ctx context.Context, query string) ([]Feature, error)
	// Reverse looks up features for a coordinate pair.
	Reverse(ctx context.Context, at models.Coordinates) ([]Feature, error)
}

// HTTPClient talks to a Mapbox-style geocoding endpoint. Lookups are
// restricted to a single country at the provider level.
type HTTPClient struct {
	Endpoint string
	Token    string
	Country  string // ISO code passed to the provider, e.g. "fr"
	Client   *http.Client
}

func NewHTTPClient(endpoint, token, country string) *HTTPClient {
	return &HTTPClient{
		Endpoint: endpoint,
		Token:    token,
		Country:  country,
		Client:   &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *HTTPClient) Forward(ctx context.Context, query string) ([]Feature, error) {
	return c.lookup(ctx, query)
}

func (c *HTTPClient) Reverse(ctx context.Context, at models.Coordinates) ([]Feature, error) {
	// the provider reverse-geocodes a "lon,lat" query string
	return c.lookup(ctx, fmt.Sprintf("%f,%f", at.Lon, at.Lat))
}

func (c *HTTPClient) lookup(ctx context.Context, query string) ([]Feature, error) {
	u := fmt.Sprintf("%s/%s.json?access_token=%s&country=%s&limit=5",
		c.Endpoint, url.PathEscape(query), url.QueryEscape(c.Token), url.QueryEscape(c.Country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}
	var out struct {
		Features []Feature `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Features, nil
}
