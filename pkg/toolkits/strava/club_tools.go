package strava

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

type clubEntry struct {
	stravaapi.Club
	Links deeplinks `json:"links"`
}

type clubsOutput struct {
	Count int         `json:"count"`
	Clubs []clubEntry `json:"clubs"`
}

type getClubInput struct {
	ClubID int64 `json:"club_id"`
}

type clubOutput struct {
	Club  *stravaapi.Club `json:"club"`
	Links deeplinks       `json:"links"`
}

type clubScopedInput struct {
	ClubID int64 `json:"club_id"`
	Limit  int   `json:"limit,omitempty"`
}

type clubMembersOutput struct {
	Count   int                 `json:"count"`
	Members []stravaapi.Athlete `json:"members"`
}

type clubActivitiesOutput struct {
	Count      int                  `json:"count"`
	Activities []stravaapi.Activity `json:"activities"`
}

func (t *Toolkit) registerClubTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetClubs,
		Description: "Lists clubs the authenticated athlete belongs to.",
	}, t.handleGetClubs)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetClub,
		Description: "Fetches one club with member count, location, and sport type.",
	}, t.handleGetClub)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetClubMembers,
		Description: "Lists members of a club.",
	}, t.handleGetClubMembers)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetClubActivity,
		Description: "Lists recent activities posted by members of a club.",
	}, t.handleGetClubActivities)
}

func (t *Toolkit) handleGetClubs(ctx context.Context, _ *mcp.CallToolRequest, input limitInput) (*mcp.CallToolResult, any, error) {
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	clubs, err := client.ListClubs(ctx, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}

	entries := make([]clubEntry, 0, len(clubs))
	for _, c := range clubs {
		entries = append(entries, clubEntry{Club: c, Links: clubLinks(c.ID)})
	}
	return successResult(clubsOutput{Count: len(entries), Clubs: entries})
}

func (t *Toolkit) handleGetClub(ctx context.Context, _ *mcp.CallToolRequest, input getClubInput) (*mcp.CallToolResult, any, error) {
	if input.ClubID <= 0 {
		return validationError("club_id must be a positive integer"), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	club, err := client.GetClub(ctx, input.ClubID)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(clubOutput{Club: club, Links: clubLinks(club.ID)})
}

func (t *Toolkit) handleGetClubMembers(ctx context.Context, _ *mcp.CallToolRequest, input clubScopedInput) (*mcp.CallToolResult, any, error) {
	if input.ClubID <= 0 {
		return validationError("club_id must be a positive integer"), nil, nil
	}
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	members, err := client.ListClubMembers(ctx, input.ClubID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(clubMembersOutput{Count: len(members), Members: members})
}

func (t *Toolkit) handleGetClubActivities(ctx context.Context, _ *mcp.CallToolRequest, input clubScopedInput) (*mcp.CallToolResult, any, error) {
	if input.ClubID <= 0 {
		return validationError("club_id must be a positive integer"), nil, nil
	}
	limit, err := clampLimit(input.Limit)
	if err != nil {
		return validationError(err.Error()), nil, nil
	}

	client, err := t.auth.Client(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	activities, err := client.ListClubActivities(ctx, input.ClubID, limit)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(clubActivitiesOutput{Count: len(activities), Activities: activities})
}
