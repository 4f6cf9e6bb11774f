package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"infosec-dashboard/internal/pkg/pdfextract"
)

// CredentialSource yields the bearer token for outbound calls; "" means none.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

type Endpoints struct {
	GraphQL       string
	SheetWebhook  string
	ChatWebhook   string
	UploadWebhook string
}

type Options struct {
	Endpoints     Endpoints
	StoragePrefix string
	MaxUploadSize int64
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client performs authenticated calls against the data query service and the
// workflow webhooks.
type Client struct {
	httpClient    *http.Client
	creds         CredentialSource
	endpoints     Endpoints
	storagePrefix string
	maxUpload     int64
	logger        *zap.Logger
	now           func() time.Time
	inspectPDF    func([]byte) (pdfextract.Info, error)
}

func NewClient(creds CredentialSource, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:    httpClient,
		creds:         creds,
		endpoints:     opts.Endpoints,
		storagePrefix: opts.StoragePrefix,
		maxUpload:     opts.MaxUploadSize,
		logger:        logger,
		now:           time.Now,
		inspectPDF:    pdfextract.Inspect,
	}
}

func (c *Client) StoragePrefix() string {
	return c.storagePrefix
}

func (c *Client) token(ctx context.Context, op string) (string, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: resolve credential failed: %w", op, err)
	}
	if token == "" {
		return "", noCredential(op)
	}
	return token, nil
}

func (c *Client) postJSON(ctx context.Context, op, url string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request failed: %w", op, err)
	}
	return c.post(ctx, op, url, "application/json", bytes.NewReader(bodyBytes))
}

func (c *Client) post(ctx context.Context, op, url, contentType string, body io.Reader) ([]byte, error) {
	token, err := c.token(ctx, op)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request failed: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportFailure(op, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportFailure(op, resp.StatusCode, fmt.Errorf("read response failed: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transportFailure(op, resp.StatusCode, fmt.Errorf("response body: %s", truncate(raw, 256)))
	}
	return raw, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
