package strava

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type emptyInput struct{}

type authenticateInput struct {
	Code string `json:"code,omitempty"`
}

type authStatusOutput struct {
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	ExpiresIn     int64  `json:"expires_in_seconds,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
	Message       string `json:"message"`
}

type authURLOutput struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type authenticateOutput struct {
	Authenticated bool   `json:"authenticated"`
	URL           string `json:"url,omitempty"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	Message       string `json:"message"`
}

type logoutOutput struct {
	Message string `json:"message"`
}

func (t *Toolkit) registerAuthTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolAuthStatus,
		Description: "Checks whether the server holds valid Strava credentials and when the " +
			"access token expires. Call this first when Strava tools fail.",
	}, t.handleAuthStatus)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolAuthURL,
		Description: "Returns a Strava authorization URL to open in a browser. Visiting it " +
			"grants this server access to your Strava data; the local callback listener " +
			"completes the flow automatically.",
	}, t.handleAuthURL)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolAuthenticate,
		Description: "Completes Strava authentication. Pass an authorization code copied from " +
			"the OAuth redirect to exchange it directly, or call without a code to open the " +
			"browser flow and wait for approval.",
	}, t.handleAuthenticate)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolLogout,
		Description: "Clears stored Strava credentials. You will need to authenticate again to access Strava data.",
	}, t.handleLogout)
}

func (t *Toolkit) handleAuthStatus(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	status, err := t.auth.Status(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}

	out := authStatusOutput{
		Authenticated: status.Authenticated,
		ExpiresAt:     status.ExpiresAt,
		ExpiresIn:     status.ExpiresIn,
		Expired:       status.Expired,
	}
	switch {
	case !status.Authenticated:
		out.Message = "Not authenticated. Call strava_auth_url to begin authentication."
	case status.Expired:
		out.Message = "Access token expired. It will be refreshed automatically on the next data request."
	default:
		out.Message = "Authenticated with Strava."
	}
	return successResult(out)
}

func (t *Toolkit) handleAuthURL(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	url, err := t.auth.AuthorizationURL(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(authURLOutput{
		URL:     url,
		Message: "Open this URL in your browser to authorize Strava access. The flow completes automatically after approval.",
	})
}

func (t *Toolkit) handleAuthenticate(ctx context.Context, _ *mcp.CallToolRequest, input authenticateInput) (*mcp.CallToolResult, any, error) {
	if code := strings.TrimSpace(input.Code); code != "" {
		return t.exchangeCode(ctx, code)
	}

	status, err := t.auth.Status(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if status.Authenticated && !status.Expired {
		return successResult(authenticateOutput{
			Authenticated: true,
			Message:       "Already authenticated with Strava.",
		})
	}

	url, err := t.auth.AuthorizationURL(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if err := t.openBrowser(url); err != nil {
		t.logger.Warn("opening browser", "error", err)
	}
	t.logger.Info("waiting for browser authorization", "timeout", t.waitTimeout)

	deadline := time.NewTimer(t.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(authenticatePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errorResult(ctx.Err()), nil, nil
		case <-deadline.C:
			return successResult(authenticateOutput{
				URL: url,
				Message: "Timed out waiting for browser authorization. Open the URL to finish; " +
					"use strava_auth_status to confirm.",
			})
		case <-ticker.C:
			status, err := t.auth.Status(ctx)
			if err != nil {
				return errorResult(err), nil, nil
			}
			if status.Authenticated && !status.Expired {
				return successResult(authenticateOutput{
					Authenticated: true,
					Message:       "Authentication complete. Strava data is now available.",
				})
			}
		}
	}
}

// exchangeCode trades a pasted authorization code for credentials.
func (t *Toolkit) exchangeCode(ctx context.Context, code string) (*mcp.CallToolResult, any, error) {
	name, err := t.auth.Complete(ctx, code)
	if err != nil {
		return errorResult(err), nil, nil
	}

	out := authenticateOutput{
		Authenticated: true,
		Message:       "Authentication complete. Strava data is now available.",
	}
	if name != "" {
		out.Message = fmt.Sprintf("Successfully authenticated as %s", name)
	}
	if status, err := t.auth.Status(ctx); err == nil {
		out.ExpiresAt = status.ExpiresAt
	}
	return successResult(out)
}

func (t *Toolkit) handleLogout(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := t.auth.Logout(ctx); err != nil {
		return errorResult(err), nil, nil
	}
	return successResult(logoutOutput{Message: "Strava credentials cleared."})
}
