package storage

import (
	"fmt"
	"strings"
)

// MaxArchiveDocumentSize caps a single archived document (8 MB).
const MaxArchiveDocumentSize int64 = 8 << 20

// AllowedArchiveContentTypes are the document formats kept in the archive.
var AllowedArchiveContentTypes = map[string]bool{
	"application/json": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// ValidateContentType checks if the content type may be archived.
func ValidateContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx != -1 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if !AllowedArchiveContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the document size is within limits.
func ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("document is empty")
	}
	if sizeBytes > MaxArchiveDocumentSize {
		return fmt.Errorf("document size %d exceeds maximum of %d bytes", sizeBytes, MaxArchiveDocumentSize)
	}
	return nil
}
