package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pokevault/internal/favorites/handler/mocks"
	"pokevault/internal/favorites/models"
	jwttoken "pokevault/internal/jwt_token"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	authmw "pokevault/pkg/platform/middleware/auth"
	"pokevault/pkg/testutil"
)

// sessionTable is the session lookup behind the single-session guard.
type sessionTable map[id.UserID]id.SessionID

func (t sessionTable) CurrentSessionID(_ context.Context, userID id.UserID) (id.SessionID, bool, error) {
	sid, ok := t[userID]
	return sid, ok, nil
}

type FavoritesHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	jwt         *jwttoken.JWTService
	sessions    sessionTable
	router      chi.Router
	userID      id.UserID
	token       string
}

func TestFavoritesHandlerSuite(t *testing.T) {
	suite.Run(t, new(FavoritesHandlerSuite))
}

func (s *FavoritesHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.jwt = jwttoken.NewJWTService("secret", "pokevault")
	s.sessions = sessionTable{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator := jwttoken.NewJWTServiceAdapter(s.jwt)
	s.router = chi.NewRouter()
	New(s.mockService, logger,
		authmw.RequireSingleSession(validator, s.sessions, logger),
		authmw.RequireAuth(validator, nil, logger),
	).Register(s.router)

	s.userID = id.NewUserID()
	s.token = s.login(s.userID)
}

// login issues a token and records its session as the user's current one.
func (s *FavoritesHandlerSuite) login(userID id.UserID) string {
	sessionID := id.NewSessionID()
	token, _, err := s.jwt.GenerateAccessToken(userID, sessionID, time.Hour)
	s.Require().NoError(err)
	s.sessions[userID] = sessionID
	return token
}

func (s *FavoritesHandlerSuite) do(method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (s *FavoritesHandlerSuite) favorite(pokeID, name string) *models.Favorite {
	return &models.Favorite{ID: id.NewFavoriteID(), UserID: s.userID, PokeID: pokeID, Name: name, CreatedAt: time.Now()}
}

func (s *FavoritesHandlerSuite) TestGuards() {
	s.Run("missing token is unauthenticated", func() {
		rec, resp := s.do(http.MethodGet, "/favorites", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal(authmw.MessageUnauthenticated, resp["message"])
	})

	s.Run("superseded session is rejected", func() {
		stale := s.token
		s.token = s.login(s.userID)

		rec, resp := s.do(http.MethodGet, "/favorites", nil, stale)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal(authmw.MessageSessionInvalidated, resp["message"])
		s.Equal(false, resp["status"])
	})

	s.Run("current session passes", func() {
		s.mockService.EXPECT().List(gomock.Any(), s.userID).Return([]*models.Favorite{}, nil)

		rec, resp := s.do(http.MethodGet, "/favorites", nil, s.token)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]any{}, resp["data"])
	})
}

func (s *FavoritesHandlerSuite) TestCreate() {
	s.Run("201 with the stored favorite", func() {
		req := models.CreateRequest{PokeID: "25", Name: "pikachu"}
		s.mockService.EXPECT().Create(gomock.Any(), s.userID, req).Return(s.favorite("25", "pikachu"), nil)

		rec, resp := s.do(http.MethodPost, "/favorites", map[string]any{"poke_id": "25", "name": "pikachu"}, s.token)
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("Favorite created", resp["message"])
		data := resp["data"].(map[string]any)
		s.Equal("25", data["poke_id"])
		s.Equal(s.userID.String(), data["user_id"])
	})

	s.Run("duplicate is 409", func() {
		s.mockService.EXPECT().Create(gomock.Any(), s.userID, gomock.Any()).Return(nil,
			dErrors.New(dErrors.CodeConflict, "Duplicate favorite").WithFields(map[string][]string{"favorite": {"Already exists"}}))

		rec, resp := s.do(http.MethodPost, "/favorites", map[string]any{"poke_id": "25", "name": "pikachu"}, s.token)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("Duplicate favorite", resp["message"])
		s.Contains(resp["errors"], "favorite")
	})

	s.Run("missing name fails validation", func() {
		rec, resp := s.do(http.MethodPost, "/favorites", map[string]any{"poke_id": "25"}, s.token)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(resp["errors"], "name")
	})
}

func (s *FavoritesHandlerSuite) TestBatch() {
	s.Run("201 with created and skipped", func() {
		s.mockService.EXPECT().CreateBatch(gomock.Any(), s.userID, []models.BatchItem{{PokeID: "1"}, {PokeID: "25"}}).
			Return(&models.BatchResult{Created: []*models.Favorite{s.favorite("25", "pikachu")}, Skipped: []string{"1"}}, nil)

		rec, resp := s.do(http.MethodPost, "/favorites/batch",
			map[string]any{"items": []map[string]any{{"poke_id": "1"}, {"poke_id": "25"}}}, s.token)
		s.Equal(http.StatusCreated, rec.Code)
		data := resp["data"].(map[string]any)
		s.Len(data["created"], 1)
		s.Equal([]any{"1"}, data["skipped"])
	})

	s.Run("empty items fails validation", func() {
		rec, _ := s.do(http.MethodPost, "/favorites/batch", map[string]any{"items": []any{}}, s.token)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *FavoritesHandlerSuite) TestDelete() {
	s.Run("deleted", func() {
		s.mockService.EXPECT().Delete(gomock.Any(), s.userID, "25").Return(nil)

		rec, resp := s.do(http.MethodDelete, "/favorites/25", nil, s.token)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Favorite deleted", resp["message"])
	})

	s.Run("absent is 404", func() {
		s.mockService.EXPECT().Delete(gomock.Any(), s.userID, "151").
			Return(dErrors.New(dErrors.CodeNotFound, "Favorite not found"))

		rec, resp := s.do(http.MethodDelete, "/favorites/151", nil, s.token)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("Favorite not found", resp["message"])
	})
}

func (s *FavoritesHandlerSuite) TestReadsUserFromContext() {
	router := chi.NewRouter()
	New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	s.mockService.EXPECT().List(gomock.Any(), s.userID).Return([]*models.Favorite{s.favorite("1", "bulbasaur")}, nil)

	req := testutil.WithAuth(testutil.NewJSONRequest(s.T(), http.MethodGet, "/favorites", nil), s.userID, id.NewSessionID(), s.token)
	rr := testutil.DoRequest(router, req)

	testutil.AssertEnvelope(s.T(), rr, http.StatusOK, "Favorites retrieved successfully")
	favs := testutil.DecodeData[[]models.FavoriteResponse](s.T(), rr)
	s.Require().Len(favs, 1)
	s.Equal("bulbasaur", favs[0].Name)
}
