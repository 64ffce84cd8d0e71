// Package geocode resolves place names through the OpenStreetMap
// Nominatim service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// userAgent identifies this client; Nominatim's usage policy requires
	// a non-generic agent string.
	userAgent = "mcp-strava/1.0 (+https://github.com/txn2/mcp-strava)"

	defaultTimeout = 15 * time.Second
	maxResults     = 5

	// kmPerDegreeLat approximates one degree of latitude. Longitude is
	// corrected by cos(latitude) in BoundsAround.
	kmPerDegreeLat = 111.0
)

// Place is one geocoding match.
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Coordinates converts the string lat/lon Nominatim returns.
func (p *Place) Coordinates() (lat, lng float64, err error) {
	lat, err = strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing latitude %q: %w", p.Lat, err)
	}
	lng, err = strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing longitude %q: %w", p.Lon, err)
	}
	return lat, lng, nil
}

// Bounds is a south-west/north-east bounding box.
type Bounds struct {
	SWLat float64 `json:"sw_lat"`
	SWLng float64 `json:"sw_lng"`
	NELat float64 `json:"ne_lat"`
	NELng float64 `json:"ne_lng"`
}

// BoundsAround builds a bounding box of the given radius around a center
// point. One degree of latitude spans roughly 111 km; longitude degrees
// shrink by cos(latitude).
func BoundsAround(lat, lng, radiusKm float64) Bounds {
	latOffset := radiusKm / kmPerDegreeLat
	lngOffset := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))
	return Bounds{
		SWLat: lat - latOffset,
		SWLng: lng - lngOffset,
		NELat: lat + latOffset,
		NELng: lng + lngOffset,
	}
}

// Client queries the Nominatim search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Nominatim client. An empty baseURL uses the public
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Search resolves a free-form location string into candidate places.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > maxResults {
		limit = maxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, stravaErrFromTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, stravaapi.NewError(
			stravaapi.KindUnexpected,
			fmt.Sprintf("Geocoding service returned status %d: %s", resp.StatusCode, string(body)),
			"Try again in a moment",
		)
	}

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return places, nil
}

// Locate resolves a query to its single best match. An unresolvable
// location is a validation error so callers can surface a better query.
func (c *Client) Locate(ctx context.Context, query string) (*Place, error) {
	places, err := c.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, stravaapi.NewError(
			stravaapi.KindValidation,
			fmt.Sprintf("Could not find location: %s", query),
			"Try a more specific place name",
		)
	}
	return &places[0], nil
}

func stravaErrFromTransport(err error) error {
	if ue, ok := err.(*url.Error); ok && ue.Timeout() {
		return stravaapi.NewError(stravaapi.KindTimeout, "Geocoding request timed out", "Try again in a moment")
	}
	return stravaapi.NewError(stravaapi.KindNetwork, "Unable to reach the geocoding service", "Check your internet connection")
}
