package util

import (
	"net/http"
	"path/filepath"
	"strings"
)

var allowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageExtension returns the extension of filename when it is one of the
// accepted post image formats. The match is case-sensitive: "cat.PNG" is rejected.
func ImageExtension(filename string) (string, bool) {
	ext := filepath.Ext(strings.TrimSpace(filename))
	_, ok := allowedImageExtensions[ext]
	return ext, ok
}

// SniffImageMIME detects the content type from the first bytes of a file.
func SniffImageMIME(head []byte) string {
	return http.DetectContentType(head)
}

// MatchesImageExtension reports whether the sniffed MIME type agrees with ext.
func MatchesImageExtension(ext string, mimeType string) bool {
	want, ok := allowedImageExtensions[strings.ToLower(ext)]
	if !ok {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(mimeType), want)
}
