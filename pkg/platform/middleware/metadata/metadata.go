package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"pokevault/pkg/requestcontext"
)

// ClientMetadata copies the chi request id, client IP, User-Agent and device
// label into the request context so services and loggers can read them without
// net/http. Mount after chi's RequestID middleware.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
			w.Header().Set("X-Request-Id", reqID)
		}
		ua := r.Header.Get("User-Agent")
		ctx = requestcontext.WithClientMetadata(ctx, ClientIPFromRequest(r), ua)
		ctx = requestcontext.WithDevice(ctx, DeviceName(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// DeviceName turns a User-Agent into "Browser on OS". Crawlers report as "bot",
// and agents the parser does not recognise fall back to the raw product token.
func DeviceName(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	platform := ua.OS()
	switch {
	case browser != "" && platform != "":
		return browser + " on " + platform
	case browser != "":
		return browser
	default:
		product, _, _ := strings.Cut(userAgent, " ")
		return product
	}
}
