package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/semantic"
)

// pointNamespace scopes the deterministic point IDs this sink generates, so
// a SHA1-based UUID collision would require an adversary controlling both
// the namespace and the doc_id input, not just the doc_id.
var pointNamespace = uuid.MustParse("6f1b1f4e-9c2a-4e3a-8b7a-1a2b3c4d5e6f")

// VectorArchiveSink adapts engine/semantic's Qdrant-backed VectorStore to
// domain.VectorSink. Point IDs are derived deterministically from each
// document's DocID via uuid.NewSHA1, so re-archiving the same chunk after a
// redelivered message overwrites the same point instead of creating a
// duplicate — the resolution to the archiver's non-idempotent-retry open
// question.
type VectorArchiveSink struct {
	store *semantic.VectorStore
}

// NewVectorArchiveSink wraps store.
func NewVectorArchiveSink(store *semantic.VectorStore) *VectorArchiveSink {
	return &VectorArchiveSink{store: store}
}

// Add implements domain.VectorSink. Each document must already carry its
// computed Embedding; upserts are batched into a single Qdrant call.
func (s *VectorArchiveSink) Add(ctx context.Context, docs []domain.VectorDocument) error {
	if len(docs) == 0 {
		return nil
	}
	records := make([]semantic.VectorRecord, len(docs))
	for i, d := range docs {
		payload := map[string]any{"content": d.Text}
		for k, v := range d.Metadata {
			payload[k] = v
		}
		records[i] = semantic.VectorRecord{
			ID:        uuid.NewSHA1(pointNamespace, []byte(d.DocID)).String(),
			Embedding: d.Embedding,
			Payload:   payload,
		}
	}
	if err := s.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("store: upsert %d vector records: %w", len(records), err)
	}
	return nil
}

// EnsureCollection delegates to the underlying store.
func (s *VectorArchiveSink) EnsureCollection(ctx context.Context, dims int) error {
	return s.store.EnsureCollection(ctx, dims)
}
