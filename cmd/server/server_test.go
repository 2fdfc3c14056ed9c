package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	favmodels "pokevault/internal/favorites/models"
	"pokevault/internal/platform/config"
	"pokevault/internal/pokeapi"
	httptransport "pokevault/internal/transport/http"
	"pokevault/pkg/testutil"
)

// fakePokeAPI serves a tiny slice of PokeAPI and counts hits per path.
type fakePokeAPI struct {
	mu   sync.Mutex
	hits map[string]int
}

func (f *fakePokeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/pokemon/25":
		_, _ = io.WriteString(w, `{"id":25,"name":"pikachu","height":4,"weight":60,
			"sprites":{"front_default":"front.png","other":{"official-artwork":{"front_default":"art.png"}}},
			"types":[{"slot":1,"type":{"name":"electric"}}],"stats":[{"base_stat":35,"stat":{"name":"hp"}}],"abilities":[]}`)
	case "/pokemon-species/25":
		_, _ = io.WriteString(w, `{"flavor_text_entries":[{"flavor_text":"Electric\nmouse.","language":{"name":"en"},"version":{"name":"sword"}}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Not Found")
	}
}

func (f *fakePokeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newTestServer(t *testing.T) (http.Handler, *fakePokeAPI) {
	t.Helper()
	upstream := &fakePokeAPI{hits: map[string]int{}}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.AppName = "pokevault"
	cfg.Auth = config.Auth{
		JWTSecret:         "test-secret",
		Issuer:            "pokevault",
		TokenTTL:          time.Hour,
		EnforceRevocation: true,
		PasswordResetTTL:  time.Hour,
		BcryptCost:        bcrypt.MinCost,
	}
	cfg.PokeAPI = config.PokeAPI{
		BaseURL:             srv.URL,
		Timeout:             2 * time.Second,
		MaxLimit:            100,
		SearchMaxResults:    1000,
		ListTTL:             time.Hour,
		DetailTTL:           time.Hour,
		TypeTTL:             time.Hour,
		EvolutionTTL:        time.Hour,
		BreakerMaxRequests:  1,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      time.Minute,
		BreakerFailureRatio: 0.9,
		BreakerMinRequests:  20,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	mods, err := buildModules(context.Background(), cfg, log, reg, &infra{})
	require.NoError(t, err)
	t.Cleanup(mods.Close)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Gatherer: reg,
		Status:   httptransport.NewStatusHandler(cfg, nil),
		Modules:  mods.registrars,
	}), upstream
}

type tokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func TestSingleSessionFavoritesFlow(t *testing.T) {
	router, _ := newTestServer(t)
	do := func(method, path string, body any, token string) *httptest.ResponseRecorder {
		return testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, method, path, body), token))
	}

	var first, second string
	testutil.Given(t, "a registered trainer", func(t *testing.T) {
		rr := do(http.MethodPost, "/auth/register", map[string]string{
			"name": "Ash Ketchum", "email": "ash@kanto.io", "password": "Pikachu123", "password_confirmation": "Pikachu123",
		}, "")
		testutil.AssertEnvelope(t, rr, http.StatusOK, "User registered and logged in successfully")
		first = testutil.DecodeData[tokenData](t, rr).AccessToken
		require.NotEmpty(t, first)

		testutil.When(t, "they save the same favorite twice", func(t *testing.T) {
			fav := map[string]any{"poke_id": "25", "name": "pikachu"}
			testutil.AssertEnvelope(t, do(http.MethodPost, "/favorites", fav, first), http.StatusCreated, "Favorite created")

			testutil.Then(t, "the second save conflicts", func(t *testing.T) {
				env := testutil.AssertEnvelope(t, do(http.MethodPost, "/favorites", fav, first), http.StatusConflict, "Duplicate favorite")
				assert.Contains(t, env.Errors, "favorite")
			})
		})

		testutil.When(t, "they log in again elsewhere", func(t *testing.T) {
			rr := do(http.MethodPost, "/auth/login", map[string]string{"email": "ash@kanto.io", "password": "Pikachu123"}, "")
			testutil.AssertEnvelope(t, rr, http.StatusOK, "Logged in successfully")
			second = testutil.DecodeData[tokenData](t, rr).AccessToken

			testutil.Then(t, "the first token is rejected on favorites as a superseded session", func(t *testing.T) {
				testutil.AssertEnvelope(t, do(http.MethodGet, "/favorites", nil, first), http.StatusUnauthorized, "Session invalidated")
			})
			testutil.Then(t, "the first token is revoked everywhere else", func(t *testing.T) {
				testutil.AssertEnvelope(t, do(http.MethodGet, "/auth/me", nil, first), http.StatusUnauthorized, "Unauthenticated.")
			})
			testutil.Then(t, "the new token sees the saved favorite", func(t *testing.T) {
				rr := do(http.MethodGet, "/favorites", nil, second)
				testutil.AssertEnvelope(t, rr, http.StatusOK, "Favorites retrieved successfully")
				favs := testutil.DecodeData[[]favmodels.FavoriteResponse](t, rr)
				require.Len(t, favs, 1)
				assert.Equal(t, "25", favs[0].PokeID)
			})
		})

		testutil.When(t, "they log out", func(t *testing.T) {
			testutil.AssertEnvelope(t, do(http.MethodPost, "/auth/logout", nil, second), http.StatusOK, "Logged out successfully")

			testutil.Then(t, "the token no longer works", func(t *testing.T) {
				testutil.AssertEnvelope(t, do(http.MethodGet, "/favorites", nil, second), http.StatusUnauthorized, "Unauthenticated.")
			})
		})
	})
}

func TestPokemonProxy(t *testing.T) {
	router, upstream := newTestServer(t)

	testutil.Given(t, "a pokemon PokeAPI knows", func(t *testing.T) {
		testutil.When(t, "it is requested twice", func(t *testing.T) {
			for range 2 {
				rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/pokemon/25", nil))
				testutil.AssertEnvelope(t, rr, http.StatusOK, "Pokemon details retrieved successfully")
				p := testutil.DecodeData[pokeapi.Pokemon](t, rr)
				assert.Equal(t, "pikachu", p.Name)
				require.NotNil(t, p.Description)
				assert.Equal(t, "Electric mouse.", *p.Description)
			}
			testutil.Then(t, "upstream was called once", func(t *testing.T) {
				assert.Equal(t, 1, upstream.count("/pokemon/25"))
				assert.Equal(t, 1, upstream.count("/pokemon-species/25"))
			})
		})
	})

	testutil.Given(t, "an id PokeAPI does not know", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/pokemon/99999", nil))
		testutil.Then(t, "the answer is Pokemon not found", func(t *testing.T) {
			env := testutil.AssertEnvelope(t, rr, http.StatusNotFound, "Pokemon not found")
			assert.Equal(t, []string{"99999"}, env.Errors["id"])
		})
	})
}

func TestBatchFavoritesFillFromPokeAPI(t *testing.T) {
	router, _ := newTestServer(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"name": "Misty", "email": "misty@cerulean.io", "password": "Starmie123", "password_confirmation": "Starmie123",
	}))
	token := testutil.DecodeData[tokenData](t, rr).AccessToken

	req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/favorites/batch", map[string]any{
		"items": []map[string]any{{"poke_id": "25"}, {"poke_id": "99999"}},
	}), token)
	rr = testutil.DoRequest(router, req)
	testutil.AssertEnvelope(t, rr, http.StatusCreated, "Batch processed")

	result := testutil.DecodeData[favmodels.BatchResponse](t, rr)
	require.Len(t, result.Created, 2)
	assert.Equal(t, "pikachu", result.Created[0].Name)
	require.NotNil(t, result.Created[0].Image)
	assert.Equal(t, "art.png", *result.Created[0].Image)
	assert.Equal(t, "99999", result.Created[1].Name)
	assert.Empty(t, result.Skipped)
}
