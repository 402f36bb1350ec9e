package testutil

import (
	"net/http"
	"time"

	id "launchpad/pkg/domain"
	"launchpad/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context, simulating what the auth
// middleware would do for authenticated requests. Invalid UUIDs are silently
// ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithOrganizationID adds an organization ID to the request context. Invalid
// UUIDs are silently ignored.
func WithOrganizationID(req *http.Request, orgID string) *http.Request {
	if parsed, err := id.ParseOrganizationID(orgID); err == nil {
		return req.WithContext(requestcontext.WithOrganizationID(req.Context(), parsed))
	}
	return req
}

// WithAuth adds both user and organization IDs to the request context, the
// typical state for an authenticated request.
func WithAuth(req *http.Request, userID, orgID string) *http.Request {
	req = WithUserID(req, userID)
	return WithOrganizationID(req, orgID)
}

// WithRequestTime pins the request-scoped clock, the way the request time
// middleware does.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
