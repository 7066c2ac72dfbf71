package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = time.Hour
)

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock used for issuing and verifying. Defaults to time.Now.
	Now func() time.Time
}

// TokenService signs and verifies HS256 tokens carrying {email, sub, type}.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// tokenClaims keeps "sub" numeric on the wire, which jwt.RegisteredClaims cannot.
type tokenClaims struct {
	Email     string           `json:"email"`
	Subject   int64            `json:"sub"`
	Type      model.TokenType  `json:"type"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
}

func (c tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c tokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c tokenClaims) GetIssuer() (string, error)                   { return "", nil }
func (c tokenClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func (c tokenClaims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

func (s *TokenService) Sign(identity model.Identity, isRefresh bool) (string, error) {
	tokenType := model.TokenTypeAccess
	ttl := s.accessTTL
	if isRefresh {
		tokenType = model.TokenTypeRefresh
		ttl = s.refreshTTL
	}

	now := s.now()
	claims := tokenClaims{
		Email:     identity.Email,
		Subject:   identity.ID,
		Type:      tokenType,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the decoded claims.
func (s *TokenService) Verify(token string) (model.AuthClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return model.AuthClaims{}, apierror.Unauthorized(apierror.CodeInvalidOrExpiredToken, "token is invalid or expired")
	}

	if claims.Type != model.TokenTypeAccess && claims.Type != model.TokenTypeRefresh {
		return model.AuthClaims{}, apierror.Unauthorized(apierror.CodeInvalidOrExpiredToken, "token is invalid or expired")
	}

	out := model.AuthClaims{
		Email:     claims.Email,
		Subject:   claims.Subject,
		Type:      claims.Type,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}

// VerifyType verifies the token and requires it to be of the wanted type.
func (s *TokenService) VerifyType(token string, want model.TokenType) (model.AuthClaims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return model.AuthClaims{}, err
	}

	if claims.Type != want {
		return model.AuthClaims{}, apierror.Unauthorized(apierror.CodeWrongTokenType, fmt.Sprintf("%s token required", want))
	}

	return claims, nil
}

// Rotate mints a new token of the requested kind. Only refresh tokens may rotate.
func (s *TokenService) Rotate(token string, isRefresh bool) (string, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return "", err
	}

	if claims.Type != model.TokenTypeRefresh {
		return "", apierror.Unauthorized(apierror.CodeWrongTokenType, "tokens can only be rotated with a refresh token")
	}

	return s.Sign(claims.Identity(), isRefresh)
}

// Pair signs an access and a refresh token for the same identity.
func (s *TokenService) Pair(identity model.Identity) (model.TokenPair, error) {
	accessToken, err := s.Sign(identity, false)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.Sign(identity, true)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
