package constants

import "strings"

// Staged file extensions (without the leading dot).
const (
	ExtractedExt   = "txt"
	TransformedExt = "json"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
