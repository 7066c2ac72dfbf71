package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog-api/internal/auth"
	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

type AuthService struct {
	users  *UserService
	hasher auth.Hasher
	tokens *auth.TokenService
}

func NewAuthService(users *UserService, hasher auth.Hasher, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// RegisterWithEmail hashes the password, creates the user and logs it in.
func (s *AuthService) RegisterWithEmail(ctx context.Context, nickname string, email string, password string) (model.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.CreateUser(ctx, model.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "nickname", user.Nickname)
	return s.LoginUser(user)
}

// AuthenticateWithEmailAndPassword returns the stored user when the
// credentials match.
func (s *AuthService) AuthenticateWithEmailAndPassword(ctx context.Context, email string, password string) (model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.BadRequest(apierror.CodeNoSuchUser, "user does not exist", "")
	}
	if err != nil {
		return model.User{}, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return model.User{}, fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		return model.User{}, apierror.BadRequest(apierror.CodeBadPassword, "password does not match", "")
	}

	return user, nil
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.AuthenticateWithEmailAndPassword(ctx, email, password)
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.LoginUser(user)
}

// LoginUser is the only place that issues a token pair.
func (s *AuthService) LoginUser(user model.User) (model.TokenPair, error) {
	return s.tokens.Pair(model.Identity{ID: user.ID, Email: user.Email})
}

func (s *AuthService) VerifyToken(token string) (model.AuthClaims, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) VerifyTokenType(token string, want model.TokenType) (model.AuthClaims, error) {
	return s.tokens.VerifyType(token, want)
}

func (s *AuthService) RotateToken(token string, isRefresh bool) (string, error) {
	return s.tokens.Rotate(token, isRefresh)
}

// CurrentUser loads the user a verified token was issued to.
func (s *AuthService) CurrentUser(ctx context.Context, claims model.AuthClaims) (model.User, error) {
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.Unauthorized(apierror.CodeUnauthorized, "token subject no longer exists")
	}
	return user, err
}
