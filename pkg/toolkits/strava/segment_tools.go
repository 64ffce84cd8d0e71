package strava

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-strava/pkg/geocode"
	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

const (
	defaultRadiusKm = 5.0
	maxRadiusKm     = 50.0

	maxClimbCategory = 5
)

type exploreSegmentsInput struct {
	Location string    `json:"location,omitempty"`
	Bounds   []float64 `json:"bounds,omitempty"`
	RadiusKm float64   `json:"radius_km,omitempty"`
	MinCat   *int      `json:"min_cat,omitempty"`
	MaxCat   *int      `json:"max_cat,omitempty"`
}

type exploreSegmentEntry struct {
	stravaapi.ExploreSegment
	Links deeplinks `json:"links"`
}

type searchedLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type exploreSegmentsOutput struct {
	Count    int                   `json:"count"`
	Segments []exploreSegmentEntry `json:"segments"`
	Searched *searchedLocation     `json:"searched_location,omitempty"`
}

type getSegmentInput struct {
	SegmentID int64 `json:"segment_id"`
}

type segmentOutput struct {
	Segment *stravaapi.Segment `json:"segment"`
	Links   deeplinks          `json:"links"`
}

type limitInput struct {
	Limit int `json:"limit,omitempty"`
}

type segmentEntry struct {
	stravaapi.Segment
	Links deeplinks `json:"links"`
}

type segmentsOutput struct {
	Count    int            `json:"count"`
	Segments []segmentEntry `json:"segments"`
}

func (t *Toolkit) registerSegmentTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolExploreSegments,
		Description: "Searches for popular running segments in an area. Provide either a location " +
			"name (geocoded automatically, radius_km defaults to 5 and caps at 50) or bounds as " +
			"[sw_lat, sw_lng, ne_lat, ne_lng]; min_cat/max_cat filter climb category (0-5).",
	}, t.handleExploreSegments)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetSegment,
		Description: "Fetches one segment with detailed fields: grade, elevation, effort counts, and location.",
	}, t.handleGetSegment)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolStarredSegments,
		Description: "Lists segments the authenticated athlete has starred.",
	}, t.handleStarredSegments)
}

// searchArea resolves the explore input into the SW/NE box the segment
// explorer expects, geocoding the location name when one is given.
func (t *Toolkit) searchArea(ctx context.Context, input exploreSegmentsInput) (stravaapi.Bounds, *searchedLocation, *mcp.CallToolResult) {
	if input.Location == "" && len(input.Bounds) == 0 {
		return stravaapi.Bounds{}, nil, validationError("Provide either 'location' or 'bounds'")
	}
	if input.Location != "" && len(input.Bounds) > 0 {
		return stravaapi.Bounds{}, nil, validationError("Provide either 'location' or 'bounds', not both")
	}

	if input.Location == "" {
		if len(input.Bounds) != 4 {
			return stravaapi.Bounds{}, nil, validationError("bounds must be [sw_lat, sw_lng, ne_lat, ne_lng]")
		}
		return stravaapi.Bounds{
			SWLat: input.Bounds[0],
			SWLng: input.Bounds[1],
			NELat: input.Bounds[2],
			NELng: input.Bounds[3],
		}, nil, nil
	}

	radius := input.RadiusKm
	if radius == 0 {
		radius = defaultRadiusKm
	}
	if radius < 0 || radius > maxRadiusKm {
		return stravaapi.Bounds{}, nil, validationError(fmt.Sprintf("radius_km must be between 0 and %g", maxRadiusKm))
	}

	place, err := t.geo.Locate(ctx, input.Location)
	if err != nil {
		return stravaapi.Bounds{}, nil, errorResult(err)
	}
	lat, lng, err := place.Coordinates()
	if err != nil {
		return stravaapi.Bounds{}, nil, errorResult(fmt.Errorf("parsing geocoded coordinates: %w", err))
	}

	box := geocode.BoundsAround(lat, lng, radius)
	return stravaapi.Bounds{SWLat: box.SWLat, SWLng: box.SWLng, NELat: box.NELat, NELng: box.NELng},
		&searchedLocation{Name: place.DisplayName, Latitude: lat, Longitude: lng}, nil
}

func (t *Toolkit) handleExploreSegments(ctx context.Context, _ *mcp.CallToolRequest, input exploreSegmentsInput) (*mcp.CallToolResult, any, error) {
	area, searched, errRes := t.searchArea(ctx, input)
	if errRes != nil {
		return errRes, nil, nil
	}

	minCat, maxCat := -1, -1
	if input.MinCat != nil {
		minCat = *input.MinCat
	}
	if input.MaxCat != nil {
		maxCat = *input.MaxCat
	}
	for _, cat := range []int{minCat, maxCat} {
		if cat != -1 && (cat < 0 || cat > maxClimbCategory) {
			return validationError(fmt.Sprintf("climb category must be between 0 and %d", maxClimbCategory)), nil, nil
		}
	}
	if minCat != -1 && maxCat != -1 && minCat > maxCat {
		return validationError("min_cat must not exceed max_cat"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	segments, err := client.ExploreSegments(ctx, area, "running", minCat, maxCat)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]exploreSegmentEntry, 0, len(segments))
	for _, seg := range segments {
		entries = append(entries, exploreSegmentEntry{ExploreSegment: seg, Links: segmentLinks(seg.ID)})
	}
	return successResult(exploreSegmentsOutput{Count: len(entries), Segments: entries, Searched: searched})
}

func (t *Toolkit) handleGetSegment(ctx context.Context, _ *mcp.CallToolRequest, input getSegmentInput) (*mcp.CallToolResult, any, error) {
	if input.SegmentID <= 0 {
		return validationError("segment_id must be a positive integer"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	segment, err := client.GetSegment(ctx, input.SegmentID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(segmentOutput{Segment: segment, Links: segmentLinks(segment.ID)})
}

func (t *Toolkit) handleStarredSegments(ctx context.Context, _ *mcp.CallToolRequest, input limitInput) (*mcp.CallToolResult, any, error) {
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	segments, err := client.ListStarredSegments(ctx, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]segmentEntry, 0, len(segments))
	for _, seg := range segments {
		entries = append(entries, segmentEntry{Segment: seg, Links: segmentLinks(seg.ID)})
	}
	return successResult(segmentsOutput{Count: len(entries), Segments: entries})
}
