package app

import (
	"context"
	"sync"

	"infosec-dashboard/internal/gateway"
)

// SheetAnalyzer starts the spreadsheet assessment workflow.
type SheetAnalyzer interface {
	AnalyzeSheet(ctx context.Context, sheetURL string) (*gateway.SheetAnalysis, error)
}

// SheetService remembers the last sheet submitted for analysis.
type SheetService struct {
	analyzer SheetAnalyzer

	mu      sync.RWMutex
	current *gateway.SheetAnalysis
}

func NewSheetService(analyzer SheetAnalyzer) *SheetService {
	return &SheetService{analyzer: analyzer}
}

// Analyze submits sheetURL. The remembered sheet only changes on success.
func (s *SheetService) Analyze(ctx context.Context, sheetURL string) (*gateway.SheetAnalysis, error) {
	result, err := s.analyzer.AnalyzeSheet(ctx, sheetURL)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = result
	s.mu.Unlock()
	return result, nil
}

// Current returns nil when no sheet has been analysed.
func (s *SheetService) Current() *gateway.SheetAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *SheetService) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
