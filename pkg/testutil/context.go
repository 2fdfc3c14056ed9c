package testutil

import (
	"net/http"

	id "pokevault/pkg/domain"
	"pokevault/pkg/requestcontext"
)

// WithAuth stores the identifiers RequireAuth would put on an authenticated
// request, for handlers tested without the middleware.
func WithAuth(req *http.Request, userID id.UserID, sessionID id.SessionID, rawToken string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithSessionID(ctx, sessionID)
	ctx = requestcontext.WithRawToken(ctx, rawToken)
	return req.WithContext(ctx)
}
