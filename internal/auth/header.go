package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

const (
	SchemeBearer = "Bearer"
	SchemeBasic  = "Basic"
)

// ExtractToken splits an Authorization header of the form "<scheme> <token>".
// The scheme comparison is case-sensitive and exactly one space is allowed.
func ExtractToken(header string, isBearer bool) (string, error) {
	scheme := SchemeBasic
	if isBearer {
		scheme = SchemeBearer
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != scheme {
		return "", apierror.Unauthorized(apierror.CodeMalformedHeader, "malformed authorization header")
	}

	return parts[1], nil
}

// DecodeBasic turns base64("email:password") into its two fields.
// It does not validate the email format or the password strength.
func DecodeBasic(token string) (model.BasicCredentials, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil || !utf8.Valid(raw) {
		return model.BasicCredentials{}, malformedCredentials()
	}

	split := strings.Split(string(raw), ":")
	if len(split) != 2 {
		return model.BasicCredentials{}, malformedCredentials()
	}

	return model.BasicCredentials{Email: split[0], Password: split[1]}, nil
}

// EncodeBasic is the inverse of DecodeBasic.
func EncodeBasic(email string, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
}

func malformedCredentials() error {
	return apierror.Unauthorized(apierror.CodeMalformedCredentials, "malformed basic credentials")
}
