package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pokevault/internal/platform/config"
	"pokevault/internal/pokeapi"
	"pokevault/internal/pokeapi/upstream"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/httputil"
)

const (
	MessagePokemonNotFound   = "Pokemon not found"
	MessageTypeNotFound      = "Pokemon type not found"
	MessageEvolutionNotFound = "Evolution chain not found"
	MessageListFailed        = "Failed to fetch pokemon from PokeAPI"
	MessageDetailFailed      = "Failed to fetch pokemon details"
	MessageTypeFailed        = "Failed to fetch pokemon by type"
	MessageEvolutionFailed   = "Failed to fetch evolution chain"
)

// Service is the read-only pokemon catalogue.
type Service interface {
	List(ctx context.Context, limit, offset int) (*pokeapi.ListResponse, error)
	SearchByName(ctx context.Context, query string, limit int) (*pokeapi.ListResponse, error)
	GetDetailed(ctx context.Context, id string) (*pokeapi.Pokemon, error)
	GetByType(ctx context.Context, typeName string) (*pokeapi.TypePayload, error)
	GetEvolutionChain(ctx context.Context, chainID int) (json.RawMessage, error)
}

// Handler serves the public /pokemon routes.
type Handler struct {
	pokemon      Service
	defaultLimit int
	logger       *slog.Logger
}

// New builds the handler. Page sizes beyond cfg.MaxLimit are clamped by the
// service, not here.
func New(pokemon Service, cfg config.PokeAPI, logger *slog.Logger) *Handler {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Handler{pokemon: pokemon, defaultLimit: defaultLimit, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/pokemon", func(r chi.Router) {
		r.Get("/", h.handleIndex)
		r.Get("/type/{type}", h.handleByType)
		r.Get("/evolution-chain/{id}", h.handleEvolutionChain)
		r.Get("/{id}", h.handleShow)
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), h.defaultLimit)
	offset := queryInt(q.Get("offset"), 0)

	var (
		resp *pokeapi.ListResponse
		err  error
	)
	if search := q.Get("search"); search != "" {
		resp, err = h.pokemon.SearchByName(ctx, search, limit)
	} else {
		resp, err = h.pokemon.List(ctx, limit, offset)
	}
	if err != nil {
		h.fail(ctx, w, err, MessageListFailed, "", nil)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, resp, "Pokemon retrieved successfully")
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	p, err := h.pokemon.GetDetailed(ctx, id)
	if err != nil {
		h.fail(ctx, w, err, MessageDetailFailed, MessagePokemonNotFound, map[string][]string{"id": {id}})
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, p, "Pokemon details retrieved successfully")
}

func (h *Handler) handleByType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeName := chi.URLParam(r, "type")
	payload, err := h.pokemon.GetByType(ctx, typeName)
	if err != nil {
		h.fail(ctx, w, err, MessageTypeFailed, MessageTypeNotFound, map[string][]string{"type": {typeName}})
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, payload, "Pokemon by type retrieved successfully")
}

func (h *Handler) handleEvolutionChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "id")
	chainID, err := strconv.Atoi(raw)
	if err != nil || chainID <= 0 {
		httputil.WriteError(w, dErrors.NewValidation("The id must be a positive integer.", map[string][]string{"id": {"The id must be a positive integer."}}))
		return
	}
	chain, err := h.pokemon.GetEvolutionChain(ctx, chainID)
	if err != nil {
		h.fail(ctx, w, err, MessageEvolutionFailed, MessageEvolutionNotFound, map[string][]string{"id": {raw}})
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, chain, "Evolution chain retrieved successfully")
}

// fail maps upstream failures onto the envelope. An upstream 404 answers with
// notFoundMsg when one is given; anything else carries the upstream status.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, failMsg, notFoundMsg string, notFoundFields map[string][]string) {
	var ue *upstream.UpstreamError
	if !errors.As(err, &ue) {
		h.logger.ErrorContext(ctx, failMsg, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, failMsg).
			WithStatus(http.StatusInternalServerError).
			WithFields(map[string][]string{"exception": {err.Error()}}))
		return
	}
	if ue.NotFound() && notFoundMsg != "" {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg).WithFields(notFoundFields))
		return
	}
	h.logger.WarnContext(ctx, failMsg, "error", err, "status", ue.HTTPStatus())
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, failMsg).
		WithStatus(ue.HTTPStatus()).
		WithFields(map[string][]string{"exception": {ue.Message}}))
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
