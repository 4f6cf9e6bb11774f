package chat

import (
	"strings"

	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/model"
)

// Reference is a document link found at the end of a message.
type Reference struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ParseReferences splits text at the references separator. Names drop
// storagePrefix when the URL lives in the storage bucket and fall back to the
// last path segment otherwise; both are percent-decoded.
func ParseReferences(text, storagePrefix string) (string, []Reference) {
	idx := strings.Index(text, gateway.ReferencesSeparator)
	if idx < 0 {
		return text, nil
	}
	prose := text[:idx]
	var refs []Reference
	for _, line := range strings.Split(text[idx+len(gateway.ReferencesSeparator):], "\n") {
		u := strings.TrimSpace(line)
		if u == "" {
			continue
		}
		refs = append(refs, Reference{URL: u, Name: referenceName(u, storagePrefix)})
	}
	return prose, refs
}

func referenceName(u, storagePrefix string) string {
	if storagePrefix != "" && strings.HasPrefix(u, storagePrefix) {
		return model.TrimStoragePrefix(u, storagePrefix)
	}
	return model.DocumentName(u)
}
