package strava

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

type activityScopedInput struct {
	ActivityID int64 `json:"activity_id"`
	Limit      int   `json:"limit,omitempty"`
}

type kudosOutput struct {
	Count int                 `json:"count"`
	Kudos []stravaapi.Athlete `json:"kudos"`
	Links deeplinks           `json:"links"`
}

type commentsOutput struct {
	Count    int                 `json:"count"`
	Comments []stravaapi.Comment `json:"comments"`
	Links    deeplinks           `json:"links"`
}

type getKOMsInput struct {
	AthleteID int64 `json:"athlete_id,omitempty"`
	Limit     int   `json:"limit,omitempty"`
}

type komEntry struct {
	stravaapi.SegmentEffort
	Links deeplinks `json:"links"`
}

type komsOutput struct {
	Count int        `json:"count"`
	KOMs  []komEntry `json:"koms"`
}

func (t *Toolkit) registerSocialTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetActivityKudos,
		Description: "Lists athletes who gave kudos on an activity.",
	}, t.handleGetActivityKudos)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetComments,
		Description: "Lists comments left on an activity.",
	}, t.handleGetActivityComments)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolGetKOMs,
		Description: "Lists an athlete's KOM/QOM and course record segment efforts. Defaults to " +
			"the authenticated athlete when athlete_id is omitted.",
	}, t.handleGetKOMs)
}

func (t *Toolkit) handleGetActivityKudos(ctx context.Context, _ *mcp.CallToolRequest, input activityScopedInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID <= 0 {
		return validationError("activity_id must be a positive integer"), nil, nil
	}
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	kudos, err := client.ListActivityKudos(ctx, input.ActivityID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(kudosOutput{Count: len(kudos), Kudos: kudos, Links: activityLinks(input.ActivityID)})
}

func (t *Toolkit) handleGetActivityComments(ctx context.Context, _ *mcp.CallToolRequest, input activityScopedInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID <= 0 {
		return validationError("activity_id must be a positive integer"), nil, nil
	}
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	comments, err := client.ListActivityComments(ctx, input.ActivityID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(commentsOutput{Count: len(comments), Comments: comments, Links: activityLinks(input.ActivityID)})
}

func (t *Toolkit) handleGetKOMs(ctx context.Context, _ *mcp.CallToolRequest, input getKOMsInput) (*mcp.CallToolResult, any, error) {
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

	efforts, err := client.ListAthleteKOMs(ctx, athleteID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]komEntry, 0, len(efforts))
	for _, effort := range efforts {
		links := deeplinks{}
		if effort.Segment != nil {
			links = segmentLinks(effort.Segment.ID)
		}
		entries = append(entries, komEntry{SegmentEffort: effort, Links: links})
	}
	return successResult(komsOutput{Count: len(entries), KOMs: entries})
}
