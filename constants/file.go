package constants

import "strings"

const (
	PDF  = "PDF"
	TEXT = "TEXT"
	JSON = "JSON"
)

// FileTypes holds the document formats the text extractor understands.
var FileTypes = []string{PDF, TEXT, JSON}

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps a normalized extension to one of FileTypes, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "text":
		return TEXT
	case "json":
		return JSON
	default:
		return ""
	}
}
