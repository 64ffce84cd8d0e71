package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateID(t *testing.T) {
	id, err := parseTemplateID(activityTemplateURI, "strava://activities/12345", "activity_id")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), id)

	_, err = parseTemplateID(activityTemplateURI, "strava://segments/7", "activity_id")
	assert.Error(t, err)

	_, err = parseTemplateID(activityTemplateURI, "strava://activities/not-a-number", "activity_id")
	assert.Error(t, err)

	_, err = parseTemplateID(activityTemplateURI, "strava://activities/-3", "activity_id")
	assert.Error(t, err)
}

func readResource(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestActivityResource(t *testing.T) {
	tk, _ := newAPIToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/101", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 101, "name": "Morning Run", "distance": 5000}`))
	})

	result, err := tk.handleActivityResource(context.Background(), readResource("strava://activities/101"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "strava://activities/101", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var out activityOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
	assert.Equal(t, "Morning Run", out.Activity.Name)
}

func TestSegmentResourceBadURI(t *testing.T) {
	tk := New("strava", &fakeAuth{}, nil, nil)

	_, err := tk.handleSegmentResource(context.Background(), readResource("strava://segments/abc"))
	require.Error(t, err)
}

func TestRouteResource(t *testing.T) {
	tk, _ := newAPIToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/routes/9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 9, "name": "Gran Fondo", "distance": 120000}`))
	})

	result, err := tk.handleRouteResource(context.Background(), readResource("strava://routes/9"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	var out routeOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
	assert.Equal(t, "Gran Fondo", out.Route.Name)
}
