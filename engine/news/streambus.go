package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
)

const (
	// RawSubject is the subject raw articles are published to.
	RawSubject = "news.raw"
	// RawStream is the JetStream stream backing RawSubject, playing the
	// role of the Redis stream the original pipeline fans its consumer
	// groups out from.
	RawStream = "NEWS"
	// RawStreamMaxMsgs bounds retention the same way the original caps its
	// Redis stream length with XADD MAXLEN.
	RawStreamMaxMsgs = 100_000

	// AnalyzerConsumer and ArchiverConsumer are durable JetStream pull
	// consumers on RawStream, each with its own delivery cursor — the
	// JetStream analog of two independent Redis consumer groups reading
	// the same stream.
	AnalyzerConsumer = "group_analyzer"
	ArchiverConsumer = "group_archiver"
)

// StreamBus owns the raw-news JetStream stream: publishing and the durable
// pull consumers the Analyzer and Archiver read from.
type StreamBus struct {
	js nats.JetStreamContext
}

// NewStreamBus ensures RawStream exists and returns a bus bound to it.
func NewStreamBus(js nats.JetStreamContext) (*StreamBus, error) {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     RawStream,
		Subjects: []string{RawSubject},
		MaxMsgs:  RawStreamMaxMsgs,
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("news: create stream %s: %w", RawStream, err)
	}
	return &StreamBus{js: js}, nil
}

// Publish appends a single article to the raw stream.
func (b *StreamBus) Publish(ctx context.Context, a domain.Article) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("news: marshal article: %w", err)
	}
	_, err = b.js.Publish(RawSubject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("news: publish article %s: %w", a.ArticleURL, err)
	}
	return nil
}

// PublishBatch publishes each article, stopping at the first publish error
// and returning how many articles it got through before the failure — the
// collector uses this count to know how much of the batch is durably
// recorded versus still owed a retry on the next cycle.
func (b *StreamBus) PublishBatch(ctx context.Context, articles []domain.Article) (int, error) {
	for i, a := range articles {
		if err := b.Publish(ctx, a); err != nil {
			return i, err
		}
	}
	return len(articles), nil
}

// EnsureConsumer creates durable if it does not already exist. Re-running
// this across restarts is expected and safe: ErrConsumerNameAlreadyInUse is
// swallowed so the consumer's existing delivery cursor and pending set
// survive a redeploy.
func (b *StreamBus) EnsureConsumer(durable string) error {
	_, err := b.js.AddConsumer(RawStream, &nats.ConsumerConfig{
		Durable:       durable,
		AckPolicy:     nats.AckExplicitPolicy,
		DeliverPolicy: nats.DeliverAllPolicy,
		AckWait:       30 * time.Second,
	})
	if err != nil && !errors.Is(err, nats.ErrConsumerNameAlreadyInUse) {
		return fmt.Errorf("news: create consumer %s: %w", durable, err)
	}
	return nil
}

// Subscribe binds a pull subscription to an existing durable consumer.
func (b *StreamBus) Subscribe(durable string) (*nats.Subscription, error) {
	sub, err := b.js.PullSubscribe(RawSubject, durable, nats.Bind(RawStream, durable))
	if err != nil {
		return nil, fmt.Errorf("news: subscribe %s: %w", durable, err)
	}
	return sub, nil
}

// Fetch pulls up to n pending messages, waiting at most maxWait for the
// first one. A timeout with zero messages is not an error condition for
// callers — it just means the stream is caught up.
func Fetch(sub *nats.Subscription, n int, maxWait time.Duration) ([]*nats.Msg, error) {
	msgs, err := sub.Fetch(n, nats.MaxWait(maxWait))
	if err != nil && !errors.Is(err, nats.ErrTimeout) {
		return nil, err
	}
	return msgs, nil
}

// PendingCount reports NumAckPending for a durable consumer: messages
// delivered but not yet acked, the redelivery queue a crash leaves behind.
func PendingCount(sub *nats.Subscription) (int, error) {
	info, err := sub.ConsumerInfo()
	if err != nil {
		return 0, err
	}
	return info.NumAckPending, nil
}

// DecodeArticle unmarshals a raw stream message back into an Article.
func DecodeArticle(msg *nats.Msg) (domain.Article, error) {
	var a domain.Article
	if err := json.Unmarshal(msg.Data, &a); err != nil {
		return domain.Article{}, fmt.Errorf("news: decode article: %w", err)
	}
	return a, nil
}
