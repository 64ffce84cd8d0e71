// Package geocode provides the geocode_location toolkit, which turns a
// place name into segment-search bounds.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	nominatim "github.com/txn2/mcp-strava/pkg/geocode"
	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

const (
	toolName = "geocode_location"

	defaultRadiusKm = 5.0
	maxRadiusKm     = 50.0
)

type geocodeInput struct {
	Query    string  `json:"query"`
	RadiusKm float64 `json:"radius_km,omitempty"`
}

type geocodeLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type geocodeOutput struct {
	Query    string           `json:"query"`
	Location geocodeLocation  `json:"location"`
	Bounds   nominatim.Bounds `json:"bounds"`
	RadiusKm float64          `json:"radius_km"`
}

// Toolkit exposes the geocode_location tool.
type Toolkit struct {
	name   string
	client *nominatim.Client
	logger *slog.Logger
}

// New creates a geocode toolkit. A nil client uses the public Nominatim
// endpoint.
func New(name string, client *nominatim.Client, logger *slog.Logger) *Toolkit {
	if client == nil {
		client = nominatim.NewClient("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolkit{name: name, client: client, logger: logger}
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "geocode"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// RegisterTools registers the geocode_location tool with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolName,
		Description: "Converts a place name into a bounding box for strava_explore_segments. " +
			"radius_km defaults to 5 and caps at 50.",
	}, t.handleGeocode)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{toolName}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

func (t *Toolkit) handleGeocode(ctx context.Context, _ *mcp.CallToolRequest, input geocodeInput) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult(stravaapi.NewError(stravaapi.KindValidation, "Query cannot be empty", "")), nil, nil
	}

	radius := input.RadiusKm
	if radius == 0 {
		radius = defaultRadiusKm
	}
	if radius < 0 {
		return errorResult(stravaapi.NewError(stravaapi.KindValidation, "radius_km must be positive", "")), nil, nil
	}
	if radius > maxRadiusKm {
		return errorResult(stravaapi.NewError(stravaapi.KindValidation,
			fmt.Sprintf("radius_km must be <= %gkm to avoid too large search areas", maxRadiusKm), "")), nil, nil
	}

	place, err := t.client.Locate(ctx, query)
	if err != nil {
		return errorResult(err), nil, nil
	}
	lat, lng, err := place.Coordinates()
	if err != nil {
		t.logger.Warn("unparseable geocode match", "place", place.DisplayName, "error", err)
		return errorResult(stravaapi.NewError(stravaapi.KindUnexpected,
			fmt.Sprintf("Geocoding returned unusable coordinates for %q", query), "Try a different place name")), nil, nil
	}

	return successResult(geocodeOutput{
		Query: query,
		Location: geocodeLocation{
			Name:      place.DisplayName,
			Latitude:  lat,
			Longitude: lng,
		},
		Bounds:   nominatim.BoundsAround(lat, lng, radius),
		RadiusKm: radius,
	})
}

func errorResult(err error) *mcp.CallToolResult {
	tagged := stravaapi.AsError(err)
	payload := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Action  string `json:"action,omitempty"`
	}{
		Error:   string(tagged.Kind),
		Message: tagged.Message,
		Action:  tagged.Action,
	}

	data, merr := json.Marshal(payload)
	if merr != nil {
		data = []byte(fmt.Sprintf(`{"error": "unexpected_error", "message": %q}`, merr.Error()))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

func successResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("marshaling response: %w", err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
