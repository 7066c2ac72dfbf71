package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"blog-api/internal/auth"
	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

type authenticator interface {
	AuthenticateWithEmailAndPassword(ctx context.Context, email string, password string) (model.User, error)
	VerifyTokenType(token string, want model.TokenType) (model.AuthClaims, error)
	CurrentUser(ctx context.Context, claims model.AuthClaims) (model.User, error)
}

type contextKey string

const (
	userContextKey   contextKey = "auth_user"
	claimsContextKey contextKey = "auth_claims"
	tokenContextKey  contextKey = "auth_token"
)

// AuthMiddleware guards routes. Each guard either rejects the request or
// stores the authenticated identity in the request context.
type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(a authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// RequireBasic authenticates "Authorization: Basic base64(email:password)".
func (m *AuthMiddleware) RequireBasic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractToken(r.Header.Get("Authorization"), false)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		creds, err := auth.DecodeBasic(token)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		user, err := m.auth.AuthenticateWithEmailAndPassword(r.Context(), creds.Email, creds.Password)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccess accepts a Bearer access token and loads its user.
func (m *AuthMiddleware) RequireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := m.bearer(r, model.TokenTypeAccess)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		user, err := m.auth.CurrentUser(r.Context(), claims)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		ctx := withToken(r.Context(), token, claims)
		ctx = context.WithValue(ctx, userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefresh accepts a Bearer refresh token. The raw token stays in the
// context so the handler can rotate it.
func (m *AuthMiddleware) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := m.bearer(r, model.TokenTypeRefresh)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withToken(r.Context(), token, claims)))
	})
}

// RequireRoles must run after RequireAccess.
func (m *AuthMiddleware) RequireRoles(allowed ...model.Role) func(http.Handler) http.Handler {
	roles := make(map[model.Role]struct{}, len(allowed))
	for _, role := range allowed {
		roles[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.Unauthorized(apierror.CodeUnauthorized, "authentication required"))
				return
			}

			if _, exists := roles[user.Role]; !exists {
				writeAPIError(w, apierror.New(apierror.CodeForbidden, "insufficient permissions", "", http.StatusForbidden))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) bearer(r *http.Request, want model.TokenType) (string, model.AuthClaims, error) {
	token, err := auth.ExtractToken(r.Header.Get("Authorization"), true)
	if err != nil {
		return "", model.AuthClaims{}, err
	}

	claims, err := m.auth.VerifyTokenType(token, want)
	if err != nil {
		return "", model.AuthClaims{}, err
	}

	return token, claims, nil
}

func withToken(ctx context.Context, token string, claims model.AuthClaims) context.Context {
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return context.WithValue(ctx, claimsContextKey, claims)
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(model.AuthClaims)
	return claims, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

func writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else {
		slog.Error("auth guard failed", "error", err)
	}

	writeJSON(w, status, model.APIResponse{Success: false, Error: body})
}
