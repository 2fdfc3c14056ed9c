package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pokevault/internal/auth/models"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/httputil"
	"pokevault/pkg/platform/validation"
	"pokevault/pkg/requestcontext"
)

const MessageResetLinkSent = "If the email exists, a reset link has been sent"

// Service defines the auth operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResult, error)
	Logout(ctx context.Context, userID id.UserID, sessionID id.SessionID, raw string) error
	Refresh(ctx context.Context, raw string) (*models.TokenResult, error)
	Me(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
}

// Handler serves the /auth routes.
type Handler struct {
	auth        Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New creates a Handler. requireAuth guards logout, refresh and me.
func New(auth Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{auth: auth, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/password/forgot", h.handleForgotPassword)
		r.Post("/password/reset", h.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Post("/refresh", h.handleRefresh)
			r.Get("/me", h.handleMe)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(r.Context(), w, err, "register failed")
		return
	}
	h.logRevocation(r.Context(), result)
	httputil.WriteSuccess(w, http.StatusOK, result.Response(), "User registered and logged in successfully")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.fail(r.Context(), w, err, "login failed")
		return
	}
	h.logRevocation(r.Context(), result)
	httputil.WriteSuccess(w, http.StatusOK, result.Response(), "Logged in successfully")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.auth.Logout(ctx, requestcontext.UserID(ctx), requestcontext.SessionID(ctx), requestcontext.RawToken(ctx))
	if err != nil {
		h.fail(ctx, w, err, "logout failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Logged out successfully")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.auth.Refresh(ctx, requestcontext.RawToken(ctx))
	if err != nil {
		h.fail(ctx, w, err, "refresh failed")
		return
	}
	h.logRevocation(ctx, result)
	httputil.WriteSuccess(w, http.StatusOK, result.Response(), "Token refreshed successfully")
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.auth.Me(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(ctx, w, err, "profile lookup failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, profile, "Profile fetched successfully")
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		// the response must not depend on whether the address exists
		h.logger.ErrorContext(r.Context(), "forgot password failed", "error", err)
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, MessageResetLinkSent)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		h.fail(r.Context(), w, err, "password reset failed")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, nil, "Password reset successfully")
}

// decode reads and validates the body, writing the error envelope on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
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

func (h *Handler) logRevocation(ctx context.Context, result *models.TokenResult) {
	if result.RevocationErr != nil {
		h.logger.WarnContext(ctx, "previous token not revoked", "error", result.RevocationErr, "user_id", result.User.ID.String())
	}
}
