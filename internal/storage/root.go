package storage

import (
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"blog-api/pkg/apierror"
)

// Root confines client paths to a directory on disk.
type Root struct {
	abs string
}

func NewRoot(dir string) (Root, error) {
	if strings.TrimSpace(dir) == "" {
		return Root{}, fmt.Errorf("storage root cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve storage root: %w", err)
	}

	return Root{abs: abs}, nil
}

func (r Root) Abs() string {
	return r.abs
}

// Join maps a slash-separated client path onto the root. Any ".." segment
// is rejected before cleaning, so "a/../b" fails even though it stays inside.
func (r Root) Join(clientPath string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(clientPath), `\`, "/")

	if strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return "", apierror.BadRequest("INVALID_PATH", "path contains invalid characters", clientPath)
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", apierror.New(apierror.CodeForbidden, "path escapes the storage root", clientPath, http.StatusForbidden)
		}
	}

	rel := strings.TrimPrefix(path.Clean("/"+p), "/")
	if rel == "" {
		return r.abs, nil
	}

	joined := filepath.Join(r.abs, filepath.FromSlash(rel))
	if !r.contains(joined) {
		return "", apierror.New(apierror.CodeForbidden, "path escapes the storage root", clientPath, http.StatusForbidden)
	}

	return joined, nil
}

func (r Root) contains(candidate string) bool {
	if candidate == r.abs {
		return true
	}

	return strings.HasPrefix(candidate, r.abs+string(filepath.Separator))
}
