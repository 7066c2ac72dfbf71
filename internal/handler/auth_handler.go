package handler

import (
	"net/http"

	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/service"
	"blog-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterEmail(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterEmailRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.service.RegisterWithEmail(r.Context(), payload.Nickname, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tokens, nil)
}

// LoginEmail runs behind RequireBasic, which has already checked the credentials.
func (h *AuthHandler) LoginEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	tokens, err := h.service.LoginUser(user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tokens, nil)
}

func (h *AuthHandler) TokenAccess(w http.ResponseWriter, r *http.Request) {
	token, err := h.rotate(r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.AccessTokenResponse{AccessToken: token}, nil)
}

func (h *AuthHandler) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := h.rotate(r, true)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.RefreshTokenResponse{RefreshToken: token}, nil)
}

func (h *AuthHandler) rotate(r *http.Request, isRefresh bool) (string, error) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		return "", apierror.Unauthorized(apierror.CodeMalformedHeader, "bearer token required")
	}

	return h.service.RotateToken(token, isRefresh)
}
