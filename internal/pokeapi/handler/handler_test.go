package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pokevault/internal/platform/config"
	"pokevault/internal/pokeapi"
	"pokevault/internal/pokeapi/handler/mocks"
	"pokevault/internal/pokeapi/upstream"
)

type PokemonHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
}

func TestPokemonHandlerSuite(t *testing.T) {
	suite.Run(t, new(PokemonHandlerSuite))
}

func (s *PokemonHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.mockService, config.PokeAPI{DefaultLimit: 20}, discardLogger()).Register(s.router)
}

func (s *PokemonHandlerSuite) get(path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func notFound(endpoint string) error {
	return &upstream.UpstreamError{StatusCode: http.StatusNotFound, Message: "Not Found", Endpoint: endpoint}
}

func (s *PokemonHandlerSuite) TestIndex() {
	s.Run("defaults to twenty from zero", func() {
		s.mockService.EXPECT().List(gomock.Any(), 20, 0).
			Return(&pokeapi.ListResponse{Count: 1, Results: []pokeapi.NamedResource{{Name: "bulbasaur"}}}, nil)

		rec, resp := s.get("/pokemon")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Pokemon retrieved successfully", resp["message"])
		data := resp["data"].(map[string]any)
		s.EqualValues(1, data["count"])
	})

	s.Run("explicit limit and offset reach the service as given", func() {
		s.mockService.EXPECT().List(gomock.Any(), 500, -10).Return(&pokeapi.ListResponse{Results: []pokeapi.NamedResource{}}, nil)

		rec, _ := s.get("/pokemon?limit=500&offset=-10")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("unparseable limit falls back to the default", func() {
		s.mockService.EXPECT().List(gomock.Any(), 20, 0).Return(&pokeapi.ListResponse{Results: []pokeapi.NamedResource{}}, nil)

		rec, _ := s.get("/pokemon?limit=abc")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("search delegates to SearchByName", func() {
		s.mockService.EXPECT().SearchByName(gomock.Any(), "char", 10).
			Return(&pokeapi.ListResponse{Count: 1, Results: []pokeapi.NamedResource{{Name: "charmander"}}}, nil)

		rec, _ := s.get("/pokemon?search=char&limit=10")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("upstream failure keeps its status", func() {
		s.mockService.EXPECT().List(gomock.Any(), 20, 0).
			Return(nil, &upstream.UpstreamError{StatusCode: http.StatusServiceUnavailable, Message: "PokeAPI is temporarily unavailable", Endpoint: "/pokemon"})

		rec, resp := s.get("/pokemon")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal(false, resp["status"])
		s.Equal(MessageListFailed, resp["message"])
		s.Contains(resp["errors"], "exception")
	})

	s.Run("upstream without a status answers 500", func() {
		s.mockService.EXPECT().List(gomock.Any(), 20, 0).
			Return(nil, &upstream.UpstreamError{Message: "request failed", Endpoint: "/pokemon", Err: errors.New("dial tcp: timeout")})

		rec, resp := s.get("/pokemon")
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal(MessageListFailed, resp["message"])
	})
}

func (s *PokemonHandlerSuite) TestIndexUsesConfiguredDefaultLimit() {
	router := chi.NewRouter()
	New(s.mockService, config.PokeAPI{DefaultLimit: 5}, discardLogger()).Register(router)

	s.mockService.EXPECT().List(gomock.Any(), 5, 0).Return(&pokeapi.ListResponse{Results: []pokeapi.NamedResource{}}, nil)
	s.mockService.EXPECT().SearchByName(gomock.Any(), "pika", 5).Return(&pokeapi.ListResponse{Results: []pokeapi.NamedResource{}}, nil)

	for _, path := range []string{"/pokemon", "/pokemon?search=pika"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		s.Equal(http.StatusOK, rec.Code, path)
	}
}

func (s *PokemonHandlerSuite) TestShow() {
	s.Run("returns the normalized record", func() {
		img := "artwork.png"
		s.mockService.EXPECT().GetDetailed(gomock.Any(), "pikachu").
			Return(&pokeapi.Pokemon{ID: 25, Name: "pikachu", Image: &img, Types: []string{"electric"}}, nil)

		rec, resp := s.get("/pokemon/pikachu")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Pokemon details retrieved successfully", resp["message"])
		data := resp["data"].(map[string]any)
		s.Equal("artwork.png", data["image"])
		s.Nil(data["description"])
	})

	s.Run("upstream 404 is Pokemon not found", func() {
		s.mockService.EXPECT().GetDetailed(gomock.Any(), "99999").Return(nil, notFound("/pokemon/99999"))

		rec, resp := s.get("/pokemon/99999")
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal(MessagePokemonNotFound, resp["message"])
		s.Equal(map[string]any{"id": []any{"99999"}}, resp["errors"])
		s.Nil(resp["data"])
	})

	s.Run("decode failure is a 500", func() {
		s.mockService.EXPECT().GetDetailed(gomock.Any(), "1").Return(nil, errors.New("decode pokemon 1: bad"))

		rec, resp := s.get("/pokemon/1")
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal(MessageDetailFailed, resp["message"])
	})
}

func (s *PokemonHandlerSuite) TestByType() {
	s.Run("lists the type members", func() {
		s.mockService.EXPECT().GetByType(gomock.Any(), "fire").Return(&pokeapi.TypePayload{
			Type:    "fire",
			Pokemon: []pokeapi.NamedResource{{Name: "charmander"}, {Name: "vulpix"}},
			Count:   2,
		}, nil)

		rec, resp := s.get("/pokemon/type/fire")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Pokemon by type retrieved successfully", resp["message"])
		data := resp["data"].(map[string]any)
		s.Equal("fire", data["type"])
		s.EqualValues(2, data["count"])
	})

	s.Run("unknown type", func() {
		s.mockService.EXPECT().GetByType(gomock.Any(), "plasma").Return(nil, notFound("/type/plasma"))

		rec, resp := s.get("/pokemon/type/plasma")
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal(MessageTypeNotFound, resp["message"])
	})
}

func (s *PokemonHandlerSuite) TestEvolutionChain() {
	s.Run("returns the raw chain", func() {
		s.mockService.EXPECT().GetEvolutionChain(gomock.Any(), 10).Return(json.RawMessage(`{"id":10}`), nil)

		rec, resp := s.get("/pokemon/evolution-chain/10")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(map[string]any{"id": float64(10)}, resp["data"])
	})

	s.Run("non numeric id is rejected before upstream", func() {
		rec, resp := s.get("/pokemon/evolution-chain/abc")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(resp["errors"], "id")
	})
}
