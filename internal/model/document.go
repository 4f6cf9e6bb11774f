package model

import (
	"net/url"
	"strings"
	"time"
)

const DocumentStatusCompleted = "completed"

// Document is a point-in-time snapshot of a record owned by the data query service.
type Document struct {
	ID           string    `json:"id"`
	UploaderName string    `json:"uploader_name"`
	DocURL       string    `json:"doc_url"`
	DocName      string    `json:"doc_name"`
	PineResponse *string   `json:"pine_response,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Status       string    `json:"status"`
}

// Pending reports whether the backend has not finished processing the document.
// Any status other than "completed" counts as pending.
func (d Document) Pending() bool {
	return d.Status != DocumentStatusCompleted
}

// DocumentName returns the percent-decoded last path segment of rawURL.
func DocumentName(rawURL string) string {
	name := rawURL
	if idx := strings.LastIndex(rawURL, "/"); idx >= 0 {
		name = rawURL[idx+1:]
	}
	return decodeName(name)
}

// TrimStoragePrefix strips prefix from rawURL and percent-decodes the rest.
// URLs outside the storage bucket are decoded as-is.
func TrimStoragePrefix(rawURL, prefix string) string {
	name := rawURL
	if prefix != "" {
		name = strings.TrimPrefix(rawURL, prefix)
	}
	return decodeName(name)
}

func decodeName(name string) string {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}
