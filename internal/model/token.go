package model

import "time"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the subset of a user that gets signed into a token.
type Identity struct {
	ID    int64
	Email string
}

type AuthClaims struct {
	Email     string    `json:"email"`
	Subject   int64     `json:"sub"`
	Type      TokenType `json:"type"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

func (c AuthClaims) Identity() Identity {
	return Identity{ID: c.Subject, Email: c.Email}
}

type BasicCredentials struct {
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type RefreshTokenResponse struct {
	RefreshToken string `json:"refreshToken"`
}
