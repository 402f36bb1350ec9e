package middleware

import (
	"net/http"

	"github.com/mssola/useragent"

	"launchpad/pkg/requestcontext"
)

// Device parses the User-Agent header into a compact "browser/os" string
// and stores it in the context so audit events can record what client
// performed a move or profile change.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("User-Agent")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ua := useragent.New(raw)
		name, version := ua.Browser()
		desc := name
		if version != "" {
			desc += " " + version
		}
		if os := ua.OS(); os != "" {
			desc += " on " + os
		}
		ctx := requestcontext.WithUserAgent(r.Context(), desc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
