package strava

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"golang.org/x/oauth2"
)

// Kind classifies provider-boundary failures so callers can surface a
// concrete remedial action instead of a generic error.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindAuthRequired Kind = "authentication_required"
	KindCSRFInvalid  Kind = "csrf_invalid"
	KindExchange     Kind = "exchange_failed"
	KindNetwork      Kind = "network_error"
	KindTimeout      Kind = "timeout"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindUnexpected   Kind = "unexpected_error"
)

// rateLimitRetryAfter is the hint returned with rate_limited errors.
// Strava enforces 15-minute request windows.
const rateLimitRetryAfter = 900

// Error is a tagged provider error. Message is human-readable; Action, when
// set, names the concrete next step for the caller.
type Error struct {
	Kind       Kind
	Message    string
	Action     string
	StatusCode int
	RetryAfter int // seconds, only for rate_limited
}

func (e *Error) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a tagged error.
func NewError(kind Kind, message, action string) *Error {
	return &Error{Kind: kind, Message: message, Action: action}
}

// AsError extracts a tagged *Error from err, wrapping unknown errors as
// unexpected_error with the underlying type name for diagnosis.
func AsError(err error) *Error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return &Error{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("%v (%T)", err, err),
	}
}

// mapStatusError classifies a non-2xx API response.
func mapStatusError(status int, body string) *Error {
	switch status {
	case 429:
		return &Error{
			Kind:       KindRateLimited,
			Message:    "Strava API rate limit exceeded",
			Action:     "Wait 15 minutes before retrying",
			StatusCode: status,
			RetryAfter: rateLimitRetryAfter,
		}
	case 401:
		return &Error{
			Kind:       KindUnauthorized,
			Message:    "Access token invalid or revoked",
			Action:     "Re-authenticate using strava_auth_url",
			StatusCode: status,
		}
	case 404:
		return &Error{
			Kind:       KindNotFound,
			Message:    "Resource not found",
			Action:     "Verify the ID exists and you have access",
			StatusCode: status,
		}
	case 403:
		return &Error{
			Kind:       KindForbidden,
			Message:    "Access denied to this resource",
			Action:     "Check if you have permission to access this data",
			StatusCode: status,
		}
	default:
		return &Error{
			Kind:       KindUnexpected,
			Message:    fmt.Sprintf("Strava API returned status %d: %s", status, body),
			StatusCode: status,
		}
	}
}

// mapTransportError classifies errors from the HTTP round trip itself.
func mapTransportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:    KindTimeout,
			Message: "Strava API request timed out",
			Action:  "Try again in a moment",
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{
			Kind:    KindNetwork,
			Message: "Unable to connect to the Strava API",
			Action:  "Check your internet connection",
		}
	}

	return AsError(err)
}

// mapExchangeError classifies failures from the OAuth token endpoint
// (code exchange and refresh). x/oauth2 surfaces provider rejections as
// *oauth2.RetrieveError carrying the HTTP status.
func mapExchangeError(err error, refreshing bool) *Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		switch status {
		case 400:
			if refreshing {
				return &Error{
					Kind:       KindUnauthorized,
					Message:    "Refresh token rejected: expired or revoked",
					Action:     "Re-authenticate using strava_auth_url",
					StatusCode: status,
				}
			}
			return &Error{
				Kind:       KindExchange,
				Message:    "Authorization code invalid or expired",
				Action:     "Request a new authorization URL and try again",
				StatusCode: status,
			}
		case 401:
			return &Error{
				Kind:       KindExchange,
				Message:    "Strava rejected the application credentials",
				Action:     "Check STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET",
				StatusCode: status,
			}
		case 429:
			return mapStatusError(status, "")
		default:
			return &Error{
				Kind:       KindExchange,
				Message:    fmt.Sprintf("Token endpoint returned status %d", status),
				StatusCode: status,
			}
		}
	}

	return mapTransportError(err)
}
