package assessment

import (
	"context"
	"time"

	"infosec-dashboard/internal/model"
)

// StaticSource serves a fixed list. The default list is the demonstration
// data shown before a real assessment backend exists.
type StaticSource struct {
	items []model.Assessment
}

func NewStaticSource(items []model.Assessment) *StaticSource {
	if items == nil {
		items = DemoAssessments()
	}
	return &StaticSource{items: items}
}

func (s *StaticSource) ListAssessments(context.Context) ([]model.Assessment, error) {
	return append([]model.Assessment(nil), s.items...), nil
}

func DemoAssessments() []model.Assessment {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []model.Assessment{
		{
			ID:             "1",
			Name:           "Annual Security Review 2024",
			CompletionDate: day(2024, time.March, 15),
			Status:         model.AssessmentCompleted,
			SheetURL:       "https://docs.google.com/spreadsheets/d/123",
		},
		{
			ID:             "2",
			Name:           "Q1 Compliance Check",
			CompletionDate: day(2024, time.March, 1),
			Status:         model.AssessmentCompleted,
			SheetURL:       "https://docs.google.com/spreadsheets/d/456",
		},
		{
			ID:             "3",
			Name:           "Network Security Assessment",
			CompletionDate: day(2024, time.February, 28),
			Status:         model.AssessmentInProgress,
			SheetURL:       "https://docs.google.com/spreadsheets/d/789",
		},
	}
}

// Store is a writable assessment source.
type Store interface {
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, item *model.Assessment) error
}

// SeedIfEmpty writes items into store when it holds no assessments yet and
// returns how many were written.
func SeedIfEmpty(ctx context.Context, store Store, items []model.Assessment) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range items {
		if err := store.Upsert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
