package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"pokevault/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{"forwarded for takes first hop", func(r *http.Request) { r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2") }, "1.1.1.1"},
		{"real ip header", func(r *http.Request) { r.Header.Set("X-Real-IP", " 3.3.3.3 ") }, "3.3.3.3"},
		{"remote addr ipv4", func(r *http.Request) { r.RemoteAddr = "10.0.0.1:5555" }, "10.0.0.1"},
		{"remote addr ipv6", func(r *http.Request) { r.RemoteAddr = "[::1]:5555" }, "::1"},
		{"missing remote addr", func(r *http.Request) { r.RemoteAddr = "" }, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.expect, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA, gotDevice, gotReqID string
	h := middleware.RequestID(ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
		gotDevice = requestcontext.Device(r.Context())
		gotReqID = requestcontext.RequestID(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:1234"
	req.Header.Set("User-Agent", "pokedex/1.0")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "192.168.1.9", gotIP)
	assert.Equal(t, "pokedex/1.0", gotUA)
	assert.Contains(t, gotDevice, "pokedex")
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, gotReqID, rr.Header().Get("X-Request-Id"))
}

func TestDeviceName(t *testing.T) {
	assert.Empty(t, DeviceName("  "))
	assert.Equal(t, "bot", DeviceName("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.Contains(t, DeviceName("Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"), "Firefox on Linux")
	assert.Contains(t, DeviceName("curl/8.4.0"), "curl")
}
