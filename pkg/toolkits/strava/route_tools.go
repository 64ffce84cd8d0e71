package strava

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

type getRoutesInput struct {
	AthleteID int64 `json:"athlete_id,omitempty"`
	Limit     int   `json:"limit,omitempty"`
}

type routeEntry struct {
	stravaapi.Route
	Links deeplinks `json:"links"`
}

type routesOutput struct {
	Count  int          `json:"count"`
	Routes []routeEntry `json:"routes"`
}

type getRouteInput struct {
	RouteID int64 `json:"route_id"`
}

type routeOutput struct {
	Route *stravaapi.Route `json:"route"`
	Links deeplinks        `json:"links"`
}

func (t *Toolkit) registerRouteTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolGetRoutes,
		Description: "Lists an athlete's created routes. Defaults to the authenticated athlete " +
			"when athlete_id is omitted.",
	}, t.handleGetRoutes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetRoute,
		Description: "Fetches one route with distance, elevation, type, and segment details.",
	}, t.handleGetRoute)
}

func (t *Toolkit) handleGetRoutes(ctx context.Context, _ *mcp.CallToolRequest, input getRoutesInput) (*mcp.CallToolResult, any, error) {
	if input.AthleteID < 0 {
		return validationError("athlete_id must be a positive integer"), nil, nil
	}
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	athleteID := input.AthleteID
	if athleteID == 0 {
		athlete, err := client.GetAthlete(ctx)
		if err != nil {
			return errorResult(err), nil, nil
		}
		athleteID = athlete.ID
	}

	routes, err := client.ListRoutes(ctx, athleteID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]routeEntry, 0, len(routes))
	for _, r := range routes {
		entries = append(entries, routeEntry{Route: r, Links: routeLinks(r.ID)})
	}
	return successResult(routesOutput{Count: len(entries), Routes: entries})
}

func (t *Toolkit) handleGetRoute(ctx context.Context, _ *mcp.CallToolRequest, input getRouteInput) (*mcp.CallToolResult, any, error) {
	if input.RouteID <= 0 {
		return validationError("route_id must be a positive integer"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	route, err := client.GetRoute(ctx, input.RouteID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(routeOutput{Route: route, Links: routeLinks(route.ID)})
}
