package news

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// DedupBucket is the JetStream KV bucket backing the deduplicator. A
	// single bucket-wide TTL stands in for the original's per-day key
	// namespace: JetStream KV TTLs are bucket scoped, so a fingerprint
	// simply falls out of the bucket DedupTTL after being written instead
	// of living under a rotating dedup:news:YYYYMMDD key.
	DedupBucket = "news-dedup"
	// DedupTTL is how long a fingerprint is remembered, matching the
	// three-day lookback window of the original deduplicator.
	DedupTTL = 3 * 24 * time.Hour
)

// Deduplicator answers whether a headline has been seen before (keyed on the
// headline's fingerprint alone, not the stock code), using a JetStream KV
// bucket as a TTL'd set. It fails open: any KV error is logged and treated as
// "not seen" so a NATS outage degrades to occasional duplicate processing
// rather than stalling ingestion.
type Deduplicator struct {
	kv  nats.KeyValue
	log *slog.Logger
}

// NewDeduplicator creates (or reuses) the dedup KV bucket.
func NewDeduplicator(js nats.JetStreamContext, log *slog.Logger) (*Deduplicator, error) {
	kv, err := js.KeyValue(DedupBucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: DedupBucket,
			TTL:    DedupTTL,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("news: open dedup bucket: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Deduplicator{kv: kv, log: log}, nil
}

// Fingerprint derives a stable, short dedup key for a normalized headline,
// matching the original's MD5-prefix fingerprinting scheme. It keys on the
// headline alone, not the ticker, so the same story carried under two
// different stock codes still collapses to one key.
func Fingerprint(headline string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(headline)), " ")
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])[:12]
}

// IsNew atomically checks-and-marks a fingerprint as seen, returning true
// only the first time it is observed within DedupTTL. A KV error fails open:
// the article is treated as new and the error is logged, never returned,
// so a transient store outage never blocks ingestion.
func (d *Deduplicator) IsNew(ctx context.Context, headline string) bool {
	key := Fingerprint(headline)
	_, err := d.kv.Create(key, []byte(time.Now().UTC().Format(time.RFC3339)))
	if err == nil {
		return true
	}
	if errors.Is(err, nats.ErrKeyExists) {
		return false
	}
	d.log.WarnContext(ctx, "dedup store error, failing open", "error", err, "key", key)
	return true
}

// IsDuplicate reports whether the fingerprint is already recorded, without
// marking it. Like IsNew, it fails open on store errors.
func (d *Deduplicator) IsDuplicate(ctx context.Context, headline string) bool {
	key := Fingerprint(headline)
	_, err := d.kv.Get(key)
	if err == nil {
		return true
	}
	if errors.Is(err, nats.ErrKeyNotFound) {
		return false
	}
	d.log.WarnContext(ctx, "dedup store error, failing open", "error", err, "key", key)
	return false
}

// MarkSeen records a fingerprint without first checking it, for callers that
// already know the article is new (e.g. re-marking after a replay).
func (d *Deduplicator) MarkSeen(ctx context.Context, headline string) {
	key := Fingerprint(headline)
	if _, err := d.kv.Put(key, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		d.log.WarnContext(ctx, "dedup mark-seen failed", "error", err, "key", key)
	}
}
