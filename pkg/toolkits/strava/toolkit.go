// Package strava provides the Strava data toolkit for the MCP server.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-strava/pkg/auth"
	"github.com/txn2/mcp-strava/pkg/geocode"
	stravaapi "github.com/txn2/mcp-strava/pkg/strava"
)

// Tool names exposed by this toolkit.
const (
	toolAuthStatus       = "strava_auth_status"
	toolAuthURL          = "strava_auth_url"
	toolAuthenticate     = "strava_authenticate"
	toolLogout           = "strava_logout"
	toolGetActivities    = "strava_get_activities"
	toolGetActivity      = "strava_get_activity"
	toolGetAthlete       = "strava_get_athlete"
	toolGetAthleteStats  = "strava_get_athlete_stats"
	toolExploreSegments  = "strava_explore_segments"
	toolGetSegment       = "strava_get_segment"
	toolStarredSegments  = "strava_get_starred_segments"
	toolGetRoutes        = "strava_get_routes"
	toolGetRoute         = "strava_get_route"
	toolGetClubs         = "strava_get_clubs"
	toolGetClub          = "strava_get_club"
	toolGetClubMembers   = "strava_get_club_members"
	toolGetClubActivity  = "strava_get_club_activities"
	toolGetActivityKudos = "strava_get_activity_kudos"
	toolGetComments      = "strava_get_activity_comments"
	toolGetKOMs          = "strava_get_koms"
)

const (
	defaultLimit = 30

	// authenticateWait bounds how long strava_authenticate blocks while the
	// user finishes the browser flow.
	authenticateWait = 2 * time.Minute
	authenticatePoll = 2 * time.Second
)

// Authenticator is the credential lifecycle surface the toolkit depends on.
type Authenticator interface {
	Client(ctx context.Context) (*stravaapi.Client, error)
	Status(ctx context.Context) (*auth.Status, error)
	AuthorizationURL(ctx context.Context) (string, error)
	Complete(ctx context.Context, code string) (string, error)
	Logout(ctx context.Context) error
}

// Geocoder resolves a place name for location-based segment search.
type Geocoder interface {
	Locate(ctx context.Context, query string) (*geocode.Place, error)
}

// Toolkit exposes Strava data and authentication tools over MCP.
type Toolkit struct {
	name   string
	auth   Authenticator
	geo    Geocoder
	logger *slog.Logger

	// waitTimeout and openBrowser are overridable for tests.
	waitTimeout time.Duration
	openBrowser func(url string) error
}

// New creates a Strava toolkit. A nil geocoder uses the public Nominatim
// endpoint.
func New(name string, authenticator Authenticator, geocoder Geocoder, logger *slog.Logger) *Toolkit {
	if geocoder == nil {
		geocoder = geocode.NewClient("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolkit{
		name:        name,
		auth:        authenticator,
		geo:         geocoder,
		logger:      logger,
		waitTimeout: authenticateWait,
		openBrowser: launchBrowser,
	}
}

// launchBrowser opens the default browser on the host, best effort.
func launchBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "strava"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// RegisterTools registers all Strava tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	t.registerAuthTools(s)
	t.registerActivityTools(s)
	t.registerSegmentTools(s)
	t.registerRouteTools(s)
	t.registerClubTools(s)
	t.registerSocialTools(s)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		toolAuthStatus, toolAuthURL, toolAuthenticate, toolLogout,
		toolGetActivities, toolGetActivity, toolGetAthlete, toolGetAthleteStats,
		toolExploreSegments, toolGetSegment, toolStarredSegments,
		toolGetRoutes, toolGetRoute,
		toolGetClubs, toolGetClub, toolGetClubMembers, toolGetClubActivity,
		toolGetActivityKudos, toolGetComments, toolGetKOMs,
	}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

// toolError is the JSON error payload returned in tool results.
type toolError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Action     string `json:"action,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// errorResult maps a tagged provider error onto an MCP error result.
func errorResult(err error) *mcp.CallToolResult {
	tagged := stravaapi.AsError(err)
	payload := toolError{
		Error:      string(tagged.Kind),
		Message:    tagged.Message,
		Action:     tagged.Action,
		RetryAfter: tagged.RetryAfter,
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

// validationError builds a validation_error result without a round trip.
func validationError(message string) *mcp.CallToolResult {
	return errorResult(stravaapi.NewError(stravaapi.KindValidation, message, ""))
}

// successResult marshals a payload into a success result.
func successResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("marshaling response: %w", err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// clampLimit normalizes a requested page size. Zero takes the default; the
// provider maximum caps the rest.
func clampLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("limit must be positive")
	}
	if limit == 0 {
		return defaultLimit, nil
	}
	if limit > stravaapi.MaxPerPage {
		return stravaapi.MaxPerPage, nil
	}
	return limit, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns Unix seconds. Empty
// input returns zero.
func parseDate(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.Unix(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", value)
	}
	return ts.Unix(), nil
}
