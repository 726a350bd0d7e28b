package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

const ndjson = "application/x-ndjson"

// multipartThreshold is the journal size above which uploads switch to the
// multipart manager.
const multipartThreshold int64 = 64 << 20

// Archiver copies run artefacts to object storage under a key prefix.
//
//	<prefix>/runs/<run_id>/intents.jsonl
//	<prefix>/runs/<run_id>/journal.jsonl
type Archiver struct {
	writer  domain.BlobWriter
	intents domain.IntentStore
	prefix  string

	multipartAt int64
}

// NewArchiver creates an Archiver. intents may be nil when no database is
// configured; ArchiveRun then fails.
func NewArchiver(writer domain.BlobWriter, intents domain.IntentStore, prefix string) *Archiver {
	return &Archiver{writer: writer, intents: intents, prefix: prefix, multipartAt: multipartThreshold}
}

// RunKey returns the object key for a run artefact.
func (a *Archiver) RunKey(runID, name string) string {
	return path.Join(a.prefix, "runs", runID, name)
}

// ArchiveRun exports every stored intent of runID as JSONL. It returns the
// number of intents written; a run without intents uploads nothing.
func (a *Archiver) ArchiveRun(ctx context.Context, runID string) (int, error) {
	if a.intents == nil {
		return 0, fmt.Errorf("s3blob: archive run %s: no intent store", runID)
	}
	intents, err := a.intents.ListByRun(ctx, runID, domain.ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive run %s query: %w", runID, err)
	}
	if len(intents) == 0 {
		return 0, nil
	}
	buf, err := marshalJSONL(intents)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive run %s marshal: %w", runID, err)
	}
	key := a.RunKey(runID, "intents.jsonl")
	if err := a.writer.Put(ctx, key, bytes.NewReader(buf), ndjson); err != nil {
		return 0, fmt.Errorf("s3blob: archive run %s upload: %w", runID, err)
	}
	return len(intents), nil
}

// UploadJournal uploads the local journal file of runID and returns its key.
// Journals larger than the multipart threshold are sent in parts.
func (a *Archiver) UploadJournal(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("s3blob: open journal: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("s3blob: stat journal: %w", err)
	}

	key := a.RunKey(runID, "journal.jsonl")
	if fi.Size() > a.multipartAt {
		err = a.writer.PutMultipart(ctx, key, f, minPartSize)
	} else {
		err = a.writer.Put(ctx, key, f, ndjson)
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: upload journal: %w", err)
	}
	return key, nil
}

// marshalJSONL serialises records as newline-delimited JSON.
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
