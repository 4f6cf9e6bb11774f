package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/model"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Backend is the part of the gateway the catalog needs.
type Backend interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	UploadDocument(ctx context.Context, upload gateway.Upload) (*gateway.UploadReceipt, error)
}

// State is a copy of the catalog for rendering.
type State struct {
	Documents   []model.Document `json:"documents"`
	Total       int              `json:"total"`
	Search      string           `json:"search"`
	Status      string           `json:"status"`
	Statuses    []string         `json:"statuses"`
	Loaded      bool             `json:"loaded"`
	Err         string           `json:"error,omitempty"`
	RefreshedAt time.Time        `json:"refreshed_at,omitempty"`
}

// Catalog holds the last fetched document list and the current filters.
// A failed refresh keeps the previous list and records the error.
type Catalog struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	// refreshMu serializes Refresh so a slow listing cannot replace a newer one.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	docs        []model.Document
	search      string
	status      string
	loaded      bool
	lastErr     error
	refreshedAt time.Time
}

func New(backend Backend, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		status:  StatusAll,
	}
}

func (c *Catalog) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	docs, err := c.backend.ListDocuments(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		c.logger.Warn("document refresh failed, keeping previous list",
			zap.Int("documents", len(c.docs)), zap.Error(err))
		return err
	}
	c.docs = docs
	c.loaded = true
	c.lastErr = nil
	c.refreshedAt = c.now()
	return nil
}

func (c *Catalog) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

// SetStatus sets the exact status to show; "" behaves like StatusAll.
func (c *Catalog) SetStatus(status string) {
	if status == "" {
		status = StatusAll
	}
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Catalog) Visible() []model.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Filter(c.docs, c.search, c.status)
}

func (c *Catalog) Statuses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return statuses(c.docs)
}

func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Catalog) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := State{
		Documents:   Filter(c.docs, c.search, c.status),
		Total:       len(c.docs),
		Search:      c.search,
		Status:      c.status,
		Statuses:    statuses(c.docs),
		Loaded:      c.loaded,
		RefreshedAt: c.refreshedAt,
	}
	if c.lastErr != nil {
		state.Err = c.lastErr.Error()
	}
	return state
}

// Upload sends the file to the upload workflow and then reloads the list once.
// A failed reload after an accepted upload is recorded but not returned.
func (c *Catalog) Upload(ctx context.Context, upload gateway.Upload) (*gateway.UploadReceipt, error) {
	receipt, err := c.backend.UploadDocument(ctx, upload)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after upload failed", zap.String("file", receipt.FileName), zap.Error(err))
	}
	return receipt, nil
}

// Filter returns the documents whose name or uploader contains search
// (case-insensitive) and whose status matches status or status is StatusAll.
// Only an empty search disables the name filter; whitespace is matched as is.
func Filter(docs []model.Document, search, status string) []model.Document {
	term := strings.ToLower(search)
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if status != StatusAll && status != "" && d.Status != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(d.DocName), term) &&
			!strings.Contains(strings.ToLower(d.UploaderName), term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// statuses lists StatusAll and the distinct non-empty statuses in first-seen order.
func statuses(docs []model.Document) []string {
	out := []string{StatusAll}
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.Status == "" {
			continue
		}
		if _, ok := seen[d.Status]; ok {
			continue
		}
		seen[d.Status] = struct{}{}
		out = append(out, d.Status)
	}
	return out
}
