package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/model"
)

type fakeBackend struct {
	mu        sync.Mutex
	docs      []model.Document
	listErr   error
	uploadErr error
	lists     int
}

func (f *fakeBackend) ListDocuments(context.Context) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Document(nil), f.docs...), nil
}

func (f *fakeBackend) UploadDocument(_ context.Context, up gateway.Upload) (*gateway.UploadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	doc := model.Document{ID: "new-" + up.FileName, DocName: up.FileName, UploaderName: up.UploaderName, Status: "processing"}
	f.docs = append(f.docs, doc)
	return &gateway.UploadReceipt{FileName: up.FileName, UploaderName: up.UploaderName, Pages: 1, Document: &doc}, nil
}

var sampleDocs = []model.Document{
	{ID: "1", DocName: "Access Control Policy.pdf", UploaderName: "Ravi", Status: "completed"},
	{ID: "2", DocName: "incident-runbook.pdf", UploaderName: "Mei", Status: "processing"},
	{ID: "3", DocName: "vendor-review.pdf", UploaderName: "Policy Team", Status: "completed"},
	{ID: "4", DocName: "backup.pdf", UploaderName: "ravi k", Status: "failed"},
}

func ids(docs []model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		search string
		status string
		want   []string
	}{
		{"everything", "", StatusAll, []string{"1", "2", "3", "4"}},
		{"empty status means all", "", "", []string{"1", "2", "3", "4"}},
		{"name match ignores case", "POLICY", StatusAll, []string{"1", "3"}},
		{"uploader match", "ravi", StatusAll, []string{"1", "4"}},
		{"status exact", "", "completed", []string{"1", "3"}},
		{"status is not substring", "", "complete", []string{}},
		{"both criteria", "policy", "completed", []string{"1", "3"}},
		{"both criteria narrow", "ravi", "failed", []string{"4"}},
		{"no match", "zzz", StatusAll, []string{}},
		{"single space is a term", " ", StatusAll, []string{"1", "3", "4"}},
		{"whitespace is not trimmed", "  ", StatusAll, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleDocs, tt.search, tt.status))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterSpaceMatchesOnlyNamesWithSpaces(t *testing.T) {
	docs := []model.Document{
		{ID: "a", DocName: "policy.pdf", UploaderName: "mei"},
		{ID: "b", DocName: "Access Policy.pdf", UploaderName: "ravi"},
	}
	got := Filter(docs, " ", StatusAll)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestCatalogRefreshAndFilters(t *testing.T) {
	backend := &fakeBackend{docs: sampleDocs}
	c := New(backend, nil)

	assert.Empty(t, c.Visible())
	assert.Equal(t, []string{StatusAll}, c.Statuses())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.Visible(), 4)
	assert.Equal(t, []string{StatusAll, "completed", "processing", "failed"}, c.Statuses())

	c.SetSearch("runbook")
	assert.Equal(t, []string{"2"}, ids(c.Visible()))
	c.SetSearch("")
	c.SetStatus("completed")
	assert.Equal(t, []string{"1", "3"}, ids(c.Visible()))

	state := c.Snapshot()
	assert.True(t, state.Loaded)
	assert.Equal(t, 4, state.Total)
	assert.Equal(t, "completed", state.Status)
	assert.Empty(t, state.Err)
	assert.False(t, state.RefreshedAt.IsZero())
}

func TestCatalogRefreshFailureKeepsList(t *testing.T) {
	backend := &fakeBackend{docs: sampleDocs}
	c := New(backend, nil)
	require.NoError(t, c.Refresh(context.Background()))

	backend.listErr = errors.New("network down")
	err := c.Refresh(context.Background())
	require.Error(t, err)

	assert.Len(t, c.Visible(), 4)
	assert.EqualError(t, c.Err(), "network down")
	assert.Equal(t, "network down", c.Snapshot().Err)

	backend.listErr = nil
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.Err())
}

func TestCatalogUploadThenRefreshShowsDocumentOnce(t *testing.T) {
	backend := &fakeBackend{docs: sampleDocs[:2]}
	c := New(backend, nil)
	require.NoError(t, c.Refresh(context.Background()))

	receipt, err := c.Upload(context.Background(), gateway.Upload{FileName: "soc2.pdf", UploaderName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "soc2.pdf", receipt.FileName)
	assert.Equal(t, 2, backend.lists)

	require.NoError(t, c.Refresh(context.Background()))
	count := 0
	for _, d := range c.Visible() {
		if d.DocName == "soc2.pdf" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, c.Visible(), 3)
}

func TestCatalogUploadFailureSkipsRefresh(t *testing.T) {
	backend := &fakeBackend{uploadErr: gateway.ErrInvalidUpload}
	c := New(backend, nil)

	_, err := c.Upload(context.Background(), gateway.Upload{FileName: "x.txt"})
	require.ErrorIs(t, err, gateway.ErrInvalidUpload)
	assert.Zero(t, backend.lists)
}

// sequencedBackend answers each listing with a document named after the call
// number; earlier calls take longer than later ones.
type sequencedBackend struct {
	fakeBackend
	calls    atomic.Int32
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (s *sequencedBackend) ListDocuments(context.Context) ([]model.Document, error) {
	n := s.calls.Add(1)
	if s.inflight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inflight.Add(-1)
	time.Sleep(time.Duration(10-n%10) * time.Millisecond)
	return []model.Document{{ID: strconv.Itoa(int(n))}}, nil
}

func TestCatalogConcurrentRefreshKeepsLatest(t *testing.T) {
	backend := &sequencedBackend{}
	c := New(backend, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Refresh(context.Background()))
		}()
	}
	wg.Wait()

	assert.False(t, backend.overlap.Load())
	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, strconv.Itoa(int(backend.calls.Load())), visible[0].ID)
}

func TestStatusesSkipEmpty(t *testing.T) {
	docs := []model.Document{
		{ID: "1", Status: "processing"},
		{ID: "2", Status: ""},
		{ID: "3", Status: "completed"},
		{ID: "4", Status: "processing"},
	}
	assert.Equal(t, []string{StatusAll, "processing", "completed"}, statuses(docs))
}
