package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
)

// ArchiverBatchSize and ArchiverMaxWait bound one drain of the archiver
// consumer.
const (
	ArchiverBatchSize = 20
	ArchiverMaxWait   = 2 * time.Second
)

// Archiver is the vector-archival consumer group member. Like Analyzer it
// always acks: archival is a secondary, recall-oriented store and a
// permanently failing embed call should not hold up the stream's retention
// window.
type Archiver struct {
	bus      *StreamBus
	sub      *nats.Subscription
	embedder domain.Embedder
	sink     domain.VectorSink
	chunkSz  int
	overlap  int
	log      *slog.Logger
}

// NewArchiver ensures the archiver's durable consumer exists and binds to
// it.
func NewArchiver(bus *StreamBus, embedder domain.Embedder, sink domain.VectorSink, log *slog.Logger) (*Archiver, error) {
	if err := bus.EnsureConsumer(ArchiverConsumer); err != nil {
		return nil, err
	}
	sub, err := bus.Subscribe(ArchiverConsumer)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Archiver{
		bus:      bus,
		sub:      sub,
		embedder: embedder,
		sink:     sink,
		chunkSz:  DefaultChunkSize,
		overlap:  DefaultChunkOverlap,
		log:      log,
	}, nil
}

// Pending reports NumAckPending for the archiver's consumer.
func (a *Archiver) Pending(ctx context.Context) (int, error) {
	return PendingCount(a.sub)
}

// Run drains pending-then-new messages up to budget, chunking, embedding,
// and upserting each article's headline into the vector store. It returns
// how many articles were processed, stopping early if a fetch comes back
// empty before budget is exhausted.
func (a *Archiver) Run(ctx context.Context, budget int) (int, error) {
	processed := 0
	for processed < budget {
		n := ArchiverBatchSize
		if remaining := budget - processed; remaining < n {
			n = remaining
		}
		msgs, err := Fetch(a.sub, n, ArchiverMaxWait)
		if err != nil {
			return processed, fmt.Errorf("news: archiver fetch: %w", err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, msg := range msgs {
			a.process(ctx, msg)
		}
		processed += len(msgs)
	}
	return processed, nil
}

func (a *Archiver) process(ctx context.Context, msg *nats.Msg) {
	defer func() {
		if err := msg.Ack(); err != nil {
			a.log.WarnContext(ctx, "archiver ack failed", "error", err)
		}
	}()

	article, err := DecodeArticle(msg)
	if err != nil {
		a.log.WarnContext(ctx, "dropping malformed archiver message", "error", err)
		return
	}

	// Content body is "[code] headline", matching the archival document
	// convention the original pipeline uses so a human skimming the vector
	// store's payload can see the ticker at a glance.
	content := fmt.Sprintf("[%s] %s", article.StockCode, article.Headline)
	chunks := ChunkText(content, a.chunkSz, a.overlap)
	if len(chunks) == 0 {
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		a.log.WarnContext(ctx, "archiver embed failed, dropping article", "error", err, "article_url", article.ArticleURL)
		return
	}

	docs := make([]domain.VectorDocument, len(chunks))
	for i, c := range chunks {
		docs[i] = domain.VectorDocument{
			DocID: fmt.Sprintf("%s#%d", article.ArticleURL, c.Index),
			Text:  c.Text,
			Metadata: map[string]string{
				"stock_code": article.StockCode,
				"source_url": article.ArticleURL,
				"source":     article.Source,
			},
			Embedding: embeddings[i],
		}
	}

	if err := a.sink.Add(ctx, docs); err != nil {
		a.log.ErrorContext(ctx, "archiver vector sink add failed", "error", err, "article_url", article.ArticleURL)
	}
}
