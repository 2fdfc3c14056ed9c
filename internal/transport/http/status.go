package httptransport

import (
	"context"
	"net/http"
	"time"

	"pokevault/internal/platform/config"
	"pokevault/pkg/platform/httputil"
	"pokevault/pkg/requestcontext"
)

const statusPingTimeout = 2 * time.Second

type StatusResponse struct {
	AppName           string          `json:"app_name"`
	AppEnv            string          `json:"app_env"`
	JWTConfigured     bool            `json:"jwt_configured"`
	DatabaseConnected bool            `json:"database_connected"`
	PokeAPIBaseURL    string          `json:"pokeapi_base_url"`
	Dependencies      map[string]bool `json:"dependencies,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// HealthChecker is an optional backing service reported under dependencies.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// StatusHandler serves a summary of the running configuration. database may be
// nil when the process runs on in-memory stores.
type StatusHandler struct {
	cfg      config.Config
	database Pinger
	checks   []HealthChecker
}

func NewStatusHandler(cfg config.Config, database Pinger, checks ...HealthChecker) *StatusHandler {
	return &StatusHandler{cfg: cfg, database: database, checks: checks}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		AppName:        h.cfg.AppName,
		AppEnv:         h.cfg.Environment,
		JWTConfigured:  h.cfg.Auth.JWTSecret != "",
		PokeAPIBaseURL: h.cfg.PokeAPI.BaseURL,
		Timestamp:      requestcontext.Now(ctx),
	}
	pingCtx, cancel := context.WithTimeout(ctx, statusPingTimeout)
	defer cancel()
	if h.database != nil {
		resp.DatabaseConnected = h.database.PingContext(pingCtx) == nil
	}
	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]bool, len(h.checks))
		for _, c := range h.checks {
			resp.Dependencies[c.Name()] = c.Health(pingCtx) == nil
		}
	}
	httputil.WriteSuccess(w, http.StatusOK, resp, "API is running correctly")
}
