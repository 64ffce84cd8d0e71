package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// Resource template URI patterns.
const (
	activityTemplateURI = "strava://activities/{activity_id}"
	segmentTemplateURI  = "strava://segments/{segment_id}"
	routeTemplateURI    = "strava://routes/{route_id}"
)

// RegisterResources registers read-only resource templates so clients can
// address Strava entities by URI as well as by tool call.
func (t *Toolkit) RegisterResources(s *mcp.Server) {
	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: activityTemplateURI,
		Name:        "Strava Activity",
		Description: "Detailed activity data: distance, time, heart rate, elevation, and description",
		MIMEType:    "application/json",
	}, t.handleActivityResource)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: segmentTemplateURI,
		Name:        "Strava Segment",
		Description: "Segment details: grade, elevation, location, and effort counts",
		MIMEType:    "application/json",
	}, t.handleSegmentResource)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: routeTemplateURI,
		Name:        "Strava Route",
		Description: "Route details: distance, elevation gain, type, and segments",
		MIMEType:    "application/json",
	}, t.handleRouteResource)
}

// parseTemplateID extracts a single numeric variable from a URI template
// match.
func parseTemplateID(templateStr, uri, varName string) (int64, error) {
	tmpl, err := uritemplate.New(templateStr)
	if err != nil {
		return 0, fmt.Errorf("invalid template %q: %w", templateStr, err)
	}

	match := tmpl.Match(uri)
	if match == nil {
		return 0, fmt.Errorf("uri %q does not match template %q", uri, templateStr)
	}

	id, err := strconv.ParseInt(match.Get(varName).String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("uri %q carries an invalid %s", uri, varName)
	}
	return id, nil
}

func resourceResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (t *Toolkit) handleActivityResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, err := parseTemplateID(activityTemplateURI, uri, "activity_id")
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	activity, err := client.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	return resourceResult(uri, activityOutput{Activity: activity, Links: activityLinks(activity.ID)})
}

func (t *Toolkit) handleSegmentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, err := parseTemplateID(segmentTemplateURI, uri, "segment_id")
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	segment, err := client.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	return resourceResult(uri, segmentOutput{Segment: segment, Links: segmentLinks(segment.ID)})
}

func (t *Toolkit) handleRouteResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, err := parseTemplateID(routeTemplateURI, uri, "route_id")
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	route, err := client.GetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	return resourceResult(uri, routeOutput{Route: route, Links: routeLinks(route.ID)})
}
