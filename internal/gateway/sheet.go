package gateway

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// SheetAnalysis acknowledges a sheet submitted to the analysis workflow.
type SheetAnalysis struct {
	URL         string    `json:"url"`
	SubmittedAt time.Time `json:"last_updated"`
}

// ValidSheetURL reports whether raw looks like a Google Sheets link.
func ValidSheetURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	return strings.EqualFold(u.Hostname(), "docs.google.com") && strings.HasPrefix(u.Path, "/spreadsheets")
}

// AnalyzeSheet starts the assessment workflow for sheetURL. URLs that are not
// spreadsheets are rejected without a network call.
func (c *Client) AnalyzeSheet(ctx context.Context, sheetURL string) (*SheetAnalysis, error) {
	const op = "analyze sheet"
	sheetURL = strings.TrimSpace(sheetURL)
	if !ValidSheetURL(sheetURL) {
		return nil, ErrInvalidSheetURL
	}

	payload := map[string]any{
		"sheet_url": sheetURL,
		"start":     1,
	}
	if _, err := c.postJSON(ctx, op, c.endpoints.SheetWebhook, payload); err != nil {
		return nil, err
	}
	return &SheetAnalysis{URL: sheetURL, SubmittedAt: c.now()}, nil
}
