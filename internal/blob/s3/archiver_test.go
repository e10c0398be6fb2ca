package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/domain"
)

type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = buf
	return nil
}

func (f *fakeBlobStore) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

func (f *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

type fakeEventStore struct {
	events    []domain.Event
	deleted   *time.Time
	deleteErr error
}

func (f *fakeEventStore) ListBefore(_ context.Context, before time.Time) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.events {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = &before
	var kept []domain.Event
	for _, e := range f.events {
		if !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(f.events) - len(kept))
	f.events = kept
	return removed, nil
}

func makeEvents(n int, at time.Time) []domain.Event {
	out := make([]domain.Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Event{
			ID:        "00000000-0000-0000-0000-00000000000" + string(rune('0'+i)),
			Kind:      domain.EventStake,
			Account:   "0xaaaa",
			Amount:    1_000_000,
			Height:    uint64(i),
			CreatedAt: at,
		})
	}
	return out
}

func TestArchiveEventsUploadsAndPrunes(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blob := newFakeBlobStore()
	store := &fakeEventStore{events: makeEvents(3, cutoff.Add(-time.Hour))}
	store.events = append(store.events, makeEvents(2, cutoff.Add(time.Hour))...)

	arch := NewEventArchiver(blob, blob, store)
	n, err := arch.ArchiveEvents(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Recent events survive the prune.
	require.Len(t, store.events, 2)
	require.NotNil(t, store.deleted)

	// The upload is JSONL, one event per line.
	data, ok := blob.objects["archive/events/2025-06.jsonl"]
	require.True(t, ok)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 3)
	var first domain.Event
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.Equal(t, domain.EventStake, first.Kind)
}

func TestArchiveEventsNothingToDo(t *testing.T) {
	blob := newFakeBlobStore()
	store := &fakeEventStore{}
	arch := NewEventArchiver(blob, blob, store)

	n, err := arch.ArchiveEvents(context.Background(), time.Now())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, blob.objects)
	require.Nil(t, store.deleted)
}

func TestArchiveEventsUploadFailureLeavesStore(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blob := newFakeBlobStore()
	blob.putErr = errors.New("boom")
	store := &fakeEventStore{events: makeEvents(3, cutoff.Add(-time.Hour))}

	arch := NewEventArchiver(blob, blob, store)
	_, err := arch.ArchiveEvents(context.Background(), cutoff)
	require.Error(t, err)
	require.Len(t, store.events, 3)
	require.Nil(t, store.deleted)
}
