package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionHeader = "Mcp-Session-Id"

type sessionKey struct{}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// SessionMiddleware tags each /rpc call with a session ID. A client-supplied
// Mcp-Session-Id is kept; otherwise a new ID is issued. The ID is echoed on
// the response so JSON-RPC clients can reuse it and correlate traffic logs.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		w.Header().Set(sessionHeader, sessionID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sessionID)))
	})
}
