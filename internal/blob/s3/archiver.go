package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stakeline/stakeline/internal/domain"
)

// multipartThreshold is the payload size above which the archiver switches
// from a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// EventArchiveStore is the slice of the event store the archiver needs: the
// time-ranged read and the post-verification delete.
type EventArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveWriter is the upload surface the archiver needs.
type ArchiveWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// ArchiveChecker verifies an uploaded object is readable before the source
// rows are deleted.
type ArchiveChecker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// EventArchiver implements domain.Archiver by querying the event store for
// aged rows, serializing them to JSONL, uploading the result to object
// storage, verifying the upload, and only then deleting the source rows.
type EventArchiver struct {
	writer  ArchiveWriter
	checker ArchiveChecker
	events  EventArchiveStore
}

// NewEventArchiver creates a new EventArchiver.
func NewEventArchiver(writer ArchiveWriter, checker ArchiveChecker, events EventArchiveStore) *EventArchiver {
	return &EventArchiver{
		writer:  writer,
		checker: checker,
		events:  events,
	}
}

// ArchiveEvents archives all events created strictly before the cutoff to
// archive/events/YYYY-MM.jsonl and removes them from the primary store. It
// returns the number of events archived. A verification failure leaves the
// primary store untouched.
func (a *EventArchiver) ArchiveEvents(ctx context.Context, before time.Time) (int, error) {
	events, err := a.events.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events query: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events marshal: %w", err)
	}

	path := archivePath("events", before)
	if len(buf) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events upload: %w", err)
	}

	ok, err := a.checker.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events verify: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: archive events verify: object %s missing after upload", path)
	}

	if _, err := a.events.DeleteBefore(ctx, before); err != nil {
		return 0, fmt.Errorf("s3blob: archive events prune: %w", err)
	}

	return len(events), nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/events/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*EventArchiver)(nil)
