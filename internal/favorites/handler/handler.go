package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pokevault/internal/favorites/models"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/httputil"
	"pokevault/pkg/platform/validation"
	"pokevault/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, userID id.UserID) ([]*models.Favorite, error)
	Create(ctx context.Context, userID id.UserID, req models.CreateRequest) (*models.Favorite, error)
	CreateBatch(ctx context.Context, userID id.UserID, items []models.BatchItem) (*models.BatchResult, error)
	Delete(ctx context.Context, userID id.UserID, pokeID string) error
}

// Handler serves /favorites. Every route runs behind guards, in order.
type Handler struct {
	favorites Service
	logger    *slog.Logger
	guards    []func(http.Handler) http.Handler
}

func New(favorites Service, logger *slog.Logger, guards ...func(http.Handler) http.Handler) *Handler {
	return &Handler{favorites: favorites, logger: logger, guards: guards}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/favorites", func(r chi.Router) {
		r.Use(h.guards...)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Post("/batch", h.handleBatch)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	favs, err := h.favorites.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(ctx, w, err, "list favorites failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, models.Responses(favs), "Favorites retrieved successfully")
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	fav, err := h.favorites.Create(ctx, requestcontext.UserID(ctx), req)
	if err != nil {
		h.fail(ctx, w, err, "create favorite failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, fav.Response(), "Favorite created")
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.BatchRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.favorites.CreateBatch(ctx, requestcontext.UserID(ctx), req.Items)
	if err != nil {
		h.fail(ctx, w, err, "batch favorites failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, result.Response(), "Batch processed")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.favorites.Delete(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "id")); err != nil {
		h.fail(ctx, w, err, "delete favorite failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Favorite deleted")
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "error", err)
	} else {
		h.logger.InfoContext(ctx, msg, "error", err)
	}
	httputil.WriteError(w, err)
}
