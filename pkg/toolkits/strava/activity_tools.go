package strava

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

type getActivitiesInput struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type activityEntry struct {
	stravaapi.Activity
	Links deeplinks `json:"links"`
}

type activitiesOutput struct {
	Count      int             `json:"count"`
	Activities []activityEntry `json:"activities"`
}

type getActivityInput struct {
	ActivityID int64 `json:"activity_id"`
}

type activityOutput struct {
	Activity *stravaapi.Activity `json:"activity"`
	Links    deeplinks           `json:"links"`
}

type athleteOutput struct {
	Athlete *stravaapi.Athlete `json:"athlete"`
	Links   deeplinks          `json:"links"`
}

type getAthleteStatsInput struct {
	AthleteID int64 `json:"athlete_id,omitempty"`
}

func (t *Toolkit) registerActivityTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolGetActivities,
		Description: "Lists the authenticated athlete's recent activities. Optional start_date " +
			"and end_date (YYYY-MM-DD or RFC 3339) filter the range; limit caps the result (max 200).",
	}, t.handleGetActivities)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetActivity,
		Description: "Fetches one activity with detailed fields: splits, heart rate, speed, elevation, and description.",
	}, t.handleGetActivity)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetAthlete,
		Description: "Fetches the authenticated athlete's profile.",
	}, t.handleGetAthlete)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolGetAthleteStats,
		Description: "Fetches ride, run, and swim totals (recent, year-to-date, all-time) for an athlete. " +
			"Defaults to the authenticated athlete when athlete_id is omitted.",
	}, t.handleGetAthleteStats)
}

func (t *Toolkit) handleGetActivities(ctx context.Context, _ *mcp.CallToolRequest, input getActivitiesInput) (*mcp.CallToolResult, any, error) {
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}
	after, err := parseDate(input.StartDate)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}
	before, err := parseDate(input.EndDate)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}
	if after > 0 && before > 0 && after > before {
		return validationError("start_date must not be after end_date"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	activities, err := client.ListActivities(ctx, after, before, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]activityEntry, 0, len(activities))
	for _, a := range activities {
		entries = append(entries, activityEntry{Activity: a, Links: activityLinks(a.ID)})
	}
	return successResult(activitiesOutput{Count: len(entries), Activities: entries})
}

func (t *Toolkit) handleGetActivity(ctx context.Context, _ *mcp.CallToolRequest, input getActivityInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID <= 0 {
		return validationError("activity_id must be a positive integer"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	activity, err := client.GetActivity(ctx, input.ActivityID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(activityOutput{Activity: activity, Links: activityLinks(activity.ID)})
}

func (t *Toolkit) handleGetAthlete(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	athlete, err := client.GetAthlete(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(athleteOutput{Athlete: athlete, Links: athleteLinks(athlete.ID)})
}

func (t *Toolkit) handleGetAthleteStats(ctx context.Context, _ *mcp.CallToolRequest, input getAthleteStatsInput) (*mcp.CallToolResult, any, error) {
	if input.AthleteID < 0 {
		return validationError("athlete_id must be a positive integer"), nil, nil
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

	stats, err := client.GetAthleteStats(ctx, athleteID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(stats)
}
