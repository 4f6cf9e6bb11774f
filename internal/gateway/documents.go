package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"infosec-dashboard/internal/model"
)

const getDocumentsQuery = `
  query GetAllDocs {
    infosec_ai_docs_data {
      id
      uploader_name
      doc_url
      pine_response
      created_at
      updated_at
      status
    }
  }
`

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type documentsResponse struct {
	Data *struct {
		Docs []wireDocument `json:"infosec_ai_docs_data"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// wireDocument is the record shape shared by the query service and the
// upload webhook.
type wireDocument struct {
	ID           flexibleID `json:"id"`
	UploaderName string     `json:"uploader_name"`
	DocURL       string     `json:"doc_url"`
	PineResponse *string    `json:"pine_response"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
	Status       string     `json:"status"`
}

// flexibleID accepts both string and numeric primary keys.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func (w wireDocument) toModel() (model.Document, error) {
	if w.ID == "" {
		return model.Document{}, errors.New("document without id")
	}
	created, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return model.Document{}, err
	}
	updated, err := parseTimestamp(w.UpdatedAt)
	if err != nil {
		return model.Document{}, err
	}
	return model.Document{
		ID:           string(w.ID),
		UploaderName: w.UploaderName,
		DocURL:       w.DocURL,
		DocName:      model.DocumentName(w.DocURL),
		PineResponse: w.PineResponse,
		CreatedAt:    created,
		UpdatedAt:    updated,
		Status:       w.Status,
	}, nil
}

// ListDocuments fetches every document record from the data query service.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	const op = "list documents"
	raw, err := c.postJSON(ctx, op, c.endpoints.GraphQL, graphQLRequest{
		Query:         getDocumentsQuery,
		OperationName: "GetAllDocs",
	})
	if err != nil {
		return nil, err
	}

	var resp documentsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed(op, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, malformed(op, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; ")))
	}
	if resp.Data == nil || resp.Data.Docs == nil {
		return nil, malformed(op, errors.New("missing infosec_ai_docs_data"))
	}

	docs := make([]model.Document, 0, len(resp.Data.Docs))
	for i, w := range resp.Data.Docs {
		doc, err := w.toModel()
		if err != nil {
			return nil, malformed(op, fmt.Errorf("record %d: %w", i, err))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
