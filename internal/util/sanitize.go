package util

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"blog-api/pkg/apierror"
)

const maxFilenameRunes = 255

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename cleans a client supplied upload name. Control and invisible
// characters are dropped, path separators and shell metacharacters become "_".
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.ContainsRune(trimmed, 0) {
		return "", invalidFilename("filename is empty or contains null bytes", trimmed)
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, trimmed)
	cleaned = strings.TrimSpace(invalidFilenameChars.ReplaceAllString(cleaned, "_"))

	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", invalidFilename("filename is invalid after sanitization", trimmed)
	}
	if strings.HasPrefix(cleaned, ".") {
		return "", invalidFilename("hidden filenames are not allowed", cleaned)
	}

	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = string(runes[:maxFilenameRunes])
	}

	return cleaned, nil
}

func invalidFilename(message string, details string) error {
	return apierror.New("INVALID_FILENAME", message, details, http.StatusBadRequest)
}
