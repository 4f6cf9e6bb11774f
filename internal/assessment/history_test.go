package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infosec-dashboard/internal/model"
)

var now = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func fixture() []model.Assessment {
	boundary := now.AddDate(0, 0, -30)
	return []model.Assessment{
		{ID: "old", CompletionDate: boundary.Add(-time.Nanosecond), Status: model.AssessmentCompleted},
		{ID: "edge", CompletionDate: boundary, Status: model.AssessmentOverdue},
		{ID: "recent", CompletionDate: now.AddDate(0, 0, -2), Status: model.AssessmentInProgress},
		{ID: "ancient", CompletionDate: now.AddDate(-1, 0, 0), Status: model.AssessmentCompleted},
		{ID: "today", CompletionDate: now, Status: model.AssessmentCompleted},
	}
}

func assessmentIDs(items []model.Assessment) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

func TestFilterDateBuckets(t *testing.T) {
	items := fixture()
	tests := []struct {
		date DateFilter
		want []string
	}{
		{DateAll, []string{"today", "recent", "edge", "old", "ancient"}},
		{DateLast30, []string{"today", "recent", "edge"}},
		{DateOlder, []string{"old", "ancient"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.date), func(t *testing.T) {
			got := assessmentIDs(Filter(items, tt.date, StatusAll, now))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDateBucketsPartition(t *testing.T) {
	items := fixture()
	recent := Filter(items, DateLast30, StatusAll, now)
	older := Filter(items, DateOlder, StatusAll, now)

	seen := map[string]int{}
	for _, a := range append(recent, older...) {
		seen[a.ID]++
	}
	require.Len(t, seen, len(items))
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestFilterAlwaysDescending(t *testing.T) {
	items := fixture()
	for _, date := range []DateFilter{DateAll, DateLast30, DateOlder} {
		for _, status := range []string{StatusAll, "Completed", "In Progress", "Overdue"} {
			got := Filter(items, date, status, now)
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].CompletionDate.After(got[i-1].CompletionDate),
					"date=%s status=%s index %d", date, status, i)
			}
		}
	}
}

func TestFilterStatus(t *testing.T) {
	got := assessmentIDs(Filter(fixture(), DateAll, "Completed", now))
	assert.Equal(t, []string{"today", "old", "ancient"}, got)

	got = assessmentIDs(Filter(fixture(), DateLast30, "Completed", now))
	assert.Equal(t, []string{"today"}, got)
}

func TestFilterStableForEqualDates(t *testing.T) {
	d := now.AddDate(0, 0, -1)
	items := []model.Assessment{{ID: "a", CompletionDate: d}, {ID: "b", CompletionDate: d}, {ID: "c", CompletionDate: d}}
	assert.Equal(t, []string{"a", "b", "c"}, assessmentIDs(Filter(items, DateAll, StatusAll, now)))
}

type failingSource struct{}

func (failingSource) ListAssessments(context.Context) ([]model.Assessment, error) {
	return nil, errors.New("db down")
}

func TestHistoryWithDemoData(t *testing.T) {
	h := NewHistory(NewStaticSource(nil))
	require.NoError(t, h.Refresh(context.Background()))

	evalAt := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"1", "2", "3"}, assessmentIDs(h.Visible(evalAt)))

	h.SetStatusFilter("In Progress")
	assert.Equal(t, []string{"3"}, assessmentIDs(h.Visible(evalAt)))

	h.SetStatusFilter("")
	h.SetDateFilter(DateOlder)
	assert.Empty(t, h.Visible(evalAt))
	date, status := h.Filters()
	assert.Equal(t, DateOlder, date)
	assert.Equal(t, StatusAll, status)

	assert.Len(t, h.Visible(evalAt.AddDate(1, 0, 0)), 3)
}

func TestHistoryRefreshFailureKeepsItems(t *testing.T) {
	h := NewHistory(NewStaticSource(fixture()))
	require.NoError(t, h.Refresh(context.Background()))
	h.source = failingSource{}
	require.Error(t, h.Refresh(context.Background()))
	assert.Len(t, h.Visible(now), 5)
}

func TestParseDateFilter(t *testing.T) {
	for raw, want := range map[string]DateFilter{"": DateAll, "all": DateAll, "last30": DateLast30, "older": DateOlder} {
		got, err := ParseDateFilter(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDateFilter("yesterday")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}
