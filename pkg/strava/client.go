// Package strava provides a client for the Strava v3 web API and the OAuth
// token endpoints, plus the tagged error taxonomy shared by the MCP tools.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the Strava v3 API root.
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// defaultTimeout bounds every outbound API call.
	defaultTimeout = 30 * time.Second

	// MaxPerPage is Strava's per_page ceiling.
	MaxPerPage = 200
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: defaultTimeout,
	}
}

// Client is an authenticated Strava API client bound to one access token.
// It is cheap to construct; the authenticator builds a fresh one per tool
// call so each call sees current credentials.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a client bound to an access token.
func NewClient(accessToken string, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return mapStatusError(resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// pageParams builds page/per_page query values, capping per_page.
func pageParams(limit int) url.Values {
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	params := url.Values{}
	if limit > 0 {
		params.Set("per_page", strconv.Itoa(limit))
	}
	return params
}

// GetAthlete fetches the authenticated athlete's profile.
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// GetAthleteStats fetches totals for the given athlete.
func (c *Client) GetAthleteStats(ctx context.Context, athleteID int64) (*AthleteStats, error) {
	var stats AthleteStats
	path := fmt.Sprintf("/athletes/%d/stats", athleteID)
	if err := c.get(ctx, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListActivities fetches the authenticated athlete's activities. after and
// before are optional Unix-second filters (zero means unset).
func (c *Client) ListActivities(ctx context.Context, after, before int64, limit int) ([]Activity, error) {
	params := pageParams(limit)
	if after > 0 {
		params.Set("after", strconv.FormatInt(after, 10))
	}
	if before > 0 {
		params.Set("before", strconv.FormatInt(before, 10))
	}

	var activities []Activity
	if err := c.get(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivity fetches one activity with detailed fields.
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.get(ctx, path, nil, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ExploreSegments searches for segments of the given activity type inside
// bounds. minCat/maxCat filter climb category; pass -1 to leave unset.
func (c *Client) ExploreSegments(ctx context.Context, bounds Bounds, activityType string, minCat, maxCat int) ([]ExploreSegment, error) {
	params := url.Values{}
	params.Set("bounds", fmt.Sprintf("%f,%f,%f,%f", bounds.SWLat, bounds.SWLng, bounds.NELat, bounds.NELng))
	if activityType != "" {
		params.Set("activity_type", activityType)
	}
	if minCat >= 0 {
		params.Set("min_cat", strconv.Itoa(minCat))
	}
	if maxCat >= 0 {
		params.Set("max_cat", strconv.Itoa(maxCat))
	}

	var resp exploreResponse
	if err := c.get(ctx, "/segments/explore", params, &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

// GetSegment fetches one segment with detailed fields.
func (c *Client) GetSegment(ctx context.Context, segmentID int64) (*Segment, error) {
	var segment Segment
	path := fmt.Sprintf("/segments/%d", segmentID)
	if err := c.get(ctx, path, nil, &segment); err != nil {
		return nil, err
	}
	return &segment, nil
}

// ListStarredSegments fetches segments starred by the authenticated athlete.
func (c *Client) ListStarredSegments(ctx context.Context, limit int) ([]Segment, error) {
	var segments []Segment
	if err := c.get(ctx, "/segments/starred", pageParams(limit), &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// ListRoutes fetches routes created by the given athlete.
func (c *Client) ListRoutes(ctx context.Context, athleteID int64, limit int) ([]Route, error) {
	var routes []Route
	path := fmt.Sprintf("/athletes/%d/routes", athleteID)
	if err := c.get(ctx, path, pageParams(limit), &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// GetRoute fetches one route with map and segment details.
func (c *Client) GetRoute(ctx context.Context, routeID int64) (*Route, error) {
	var route Route
	path := fmt.Sprintf("/routes/%d", routeID)
	if err := c.get(ctx, path, nil, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// ListClubs fetches clubs the authenticated athlete belongs to.
func (c *Client) ListClubs(ctx context.Context, limit int) ([]Club, error) {
	var clubs []Club
	if err := c.get(ctx, "/athlete/clubs", pageParams(limit), &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

// GetClub fetches one club with detailed fields.
func (c *Client) GetClub(ctx context.Context, clubID int64) (*Club, error) {
	var club Club
	path := fmt.Sprintf("/clubs/%d", clubID)
	if err := c.get(ctx, path, nil, &club); err != nil {
		return nil, err
	}
	return &club, nil
}

// ListClubMembers fetches a club's member summaries.
func (c *Client) ListClubMembers(ctx context.Context, clubID int64, limit int) ([]Athlete, error) {
	var members []Athlete
	path := fmt.Sprintf("/clubs/%d/members", clubID)
	if err := c.get(ctx, path, pageParams(limit), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListClubActivities fetches recent activities by a club's members.
func (c *Client) ListClubActivities(ctx context.Context, clubID int64, limit int) ([]Activity, error) {
	var activities []Activity
	path := fmt.Sprintf("/clubs/%d/activities", clubID)
	if err := c.get(ctx, path, pageParams(limit), &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListActivityKudos fetches athletes who gave kudos to an activity.
func (c *Client) ListActivityKudos(ctx context.Context, activityID int64, limit int) ([]Athlete, error) {
	var kudoers []Athlete
	path := fmt.Sprintf("/activities/%d/kudos", activityID)
	if err := c.get(ctx, path, pageParams(limit), &kudoers); err != nil {
		return nil, err
	}
	return kudoers, nil
}

// ListActivityComments fetches comments on an activity.
func (c *Client) ListActivityComments(ctx context.Context, activityID int64, limit int) ([]Comment, error) {
	var comments []Comment
	path := fmt.Sprintf("/activities/%d/comments", activityID)
	if err := c.get(ctx, path, pageParams(limit), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListAthleteKOMs fetches segment efforts where the athlete holds the
// KOM/QOM or course record.
func (c *Client) ListAthleteKOMs(ctx context.Context, athleteID int64, limit int) ([]SegmentEffort, error) {
	var efforts []SegmentEffort
	path := fmt.Sprintf("/athletes/%d/koms", athleteID)
	if err := c.get(ctx, path, pageParams(limit), &efforts); err != nil {
		return nil, err
	}
	return efforts, nil
}
