package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"infosec-dashboard/internal/model"
)

type DateFilter string

const (
	DateAll    DateFilter = "all"
	DateLast30 DateFilter = "last30"
	DateOlder  DateFilter = "older"

	// StatusAll disables the status filter.
	StatusAll = "all"
)

var ErrUnknownFilter = errors.New("unknown filter value")

// ParseDateFilter accepts "" as DateAll.
func ParseDateFilter(raw string) (DateFilter, error) {
	switch DateFilter(raw) {
	case "", DateAll:
		return DateAll, nil
	case DateLast30, DateOlder:
		return DateFilter(raw), nil
	}
	return "", fmt.Errorf("%w: date=%q", ErrUnknownFilter, raw)
}

// Source supplies the assessment list.
type Source interface {
	ListAssessments(ctx context.Context) ([]model.Assessment, error)
}

// History filters and orders assessments for display.
type History struct {
	source Source

	mu           sync.RWMutex
	items        []model.Assessment
	dateFilter   DateFilter
	statusFilter string
}

func NewHistory(source Source) *History {
	return &History{source: source, dateFilter: DateAll, statusFilter: StatusAll}
}

// Refresh replaces the held list with the source's current contents. The
// previous list stays on failure.
func (h *History) Refresh(ctx context.Context) error {
	items, err := h.source.ListAssessments(ctx)
	if err != nil {
		return fmt.Errorf("load assessments failed: %w", err)
	}
	h.mu.Lock()
	h.items = items
	h.mu.Unlock()
	return nil
}

func (h *History) SetDateFilter(f DateFilter) {
	h.mu.Lock()
	h.dateFilter = f
	h.mu.Unlock()
}

func (h *History) SetStatusFilter(status string) {
	if status == "" {
		status = StatusAll
	}
	h.mu.Lock()
	h.statusFilter = status
	h.mu.Unlock()
}

func (h *History) Filters() (DateFilter, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dateFilter, h.statusFilter
}

// Visible applies the current filters relative to now.
func (h *History) Visible(now time.Time) []model.Assessment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Filter(h.items, h.dateFilter, h.statusFilter, now)
}

// Filter returns the matching assessments, most recent completion first.
// Entries completed exactly 30 days before now count as recent.
func Filter(items []model.Assessment, date DateFilter, status string, now time.Time) []model.Assessment {
	boundary := now.AddDate(0, 0, -30)
	out := make([]model.Assessment, 0, len(items))
	for _, a := range items {
		if status != StatusAll && status != "" && string(a.Status) != status {
			continue
		}
		switch date {
		case DateLast30:
			if a.CompletionDate.Before(boundary) {
				continue
			}
		case DateOlder:
			if !a.CompletionDate.Before(boundary) {
				continue
			}
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletionDate.After(out[j].CompletionDate)
	})
	return out
}
