package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/fn"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/tickernlp"
)

// EmergencyKeywords mark a headline as requiring urgent review; a match
// doesn't change the scoring contract but is surfaced in logs so an
// operator's alerting can key off it.
var EmergencyKeywords = []string{
	"속보", "긴급", "전쟁", "관세", "파병", "계엄", "공습", "폭격",
	"Emergency", "Breaking",
}

// AnalyzerBatchSize and AnalyzerMaxWait bound one drain of the analyzer
// consumer.
const (
	AnalyzerBatchSize = 20
	AnalyzerMaxWait   = 2 * time.Second
)

// Analyzer is the sentiment-scoring consumer group member. It always acks:
// an LLM failure degrades to a neutral fallback score rather than leaving
// the message pending for redelivery, since sentiment is best-effort and a
// stuck pending set would eventually starve the consumer's ack window.
type Analyzer struct {
	bus         *StreamBus
	sub         *nats.Subscription
	llm         domain.SentimentLLM
	store       domain.SentimentStore
	extractor   *tickernlp.Extractor
	concurrency int
	log         *slog.Logger
}

// NewAnalyzer ensures the analyzer's durable consumer exists and binds to
// it.
func NewAnalyzer(bus *StreamBus, sentimentLLM domain.SentimentLLM, store domain.SentimentStore, concurrency int, log *slog.Logger) (*Analyzer, error) {
	if err := bus.EnsureConsumer(AnalyzerConsumer); err != nil {
		return nil, err
	}
	sub, err := bus.Subscribe(AnalyzerConsumer)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{bus: bus, sub: sub, llm: sentimentLLM, store: store, concurrency: concurrency, log: log}, nil
}

// SetUniverse rebuilds the competitor-mention extractor against the current
// active universe. Called once per orchestrator cycle before Run.
func (a *Analyzer) SetUniverse(universe domain.Universe, aliases map[string][]string) {
	a.extractor = tickernlp.New(universe, aliases)
}

// Pending reports how many messages are delivered-but-unacked, the set a
// crash leaves behind for replay on restart.
func (a *Analyzer) Pending(ctx context.Context) (int, error) {
	return PendingCount(a.sub)
}

// Run drains pending-then-new messages up to budget, scoring each batch
// concurrently up to the configured concurrency, and returns how many were
// processed. It stops early if a fetch comes back empty before budget is
// exhausted, since that means the consumer has caught up to the stream.
func (a *Analyzer) Run(ctx context.Context, budget int) (int, error) {
	processed := 0
	for processed < budget {
		n := AnalyzerBatchSize
		if remaining := budget - processed; remaining < n {
			n = remaining
		}
		msgs, err := Fetch(a.sub, n, AnalyzerMaxWait)
		if err != nil {
			return processed, fmt.Errorf("news: analyzer fetch: %w", err)
		}
		if len(msgs) == 0 {
			break
		}

		fn.ParMap(msgs, a.concurrency, func(msg *nats.Msg) struct{} {
			a.process(ctx, msg)
			return struct{}{}
		})
		processed += len(msgs)
	}
	return processed, nil
}

func (a *Analyzer) process(ctx context.Context, msg *nats.Msg) {
	defer func() {
		if err := msg.Ack(); err != nil {
			a.log.WarnContext(ctx, "analyzer ack failed", "error", err)
		}
	}()

	article, err := DecodeArticle(msg)
	if err != nil {
		a.log.WarnContext(ctx, "dropping malformed analyzer message", "error", err)
		return
	}

	exists, err := a.store.Exists(ctx, article.ArticleURL)
	if err != nil {
		a.log.WarnContext(ctx, "sentiment store exists check failed, proceeding", "error", err, "article_url", article.ArticleURL)
	} else if exists {
		return
	}

	result := a.score(ctx, article)
	if a.extractor != nil {
		mentions := a.extractor.Extract(article.Headline, article.StockCode)
		for _, m := range mentions {
			result.Mentions = append(result.Mentions, domain.CompetitorMention{
				StockCode:  m.StockCode,
				StockName:  m.StockName,
				Confidence: m.Confidence,
			})
		}
	}

	if isEmergency(article.Headline) {
		a.log.WarnContext(ctx, "emergency keyword matched", "stock_code", article.StockCode, "headline", article.Headline)
	}

	if err := a.store.Save(ctx, result); err != nil {
		a.log.ErrorContext(ctx, "sentiment save failed", "error", err, "article_url", article.ArticleURL)
	}
}

func (a *Analyzer) score(ctx context.Context, article domain.Article) domain.SentimentResult {
	result := domain.SentimentResult{
		StockCode:   article.StockCode,
		Headline:    article.Headline,
		Press:       article.Press,
		ArticleURL:  article.ArticleURL,
		PublishedAt: article.PublishedAt,
		Source:      article.Source,
		Score:       domain.FallbackScore,
		Reason:      domain.FallbackReason,
	}

	prompt := sentimentPrompt(article)
	raw, err := a.llm.GenerateJSON(ctx, prompt, domain.SentimentSchema)
	if err != nil {
		a.log.WarnContext(ctx, "sentiment LLM call failed, using neutral fallback", "error", err, "article_url", article.ArticleURL)
		return result
	}

	score, reason, ok := parseSentiment(raw)
	if !ok {
		a.log.WarnContext(ctx, "sentiment LLM returned unusable payload, using neutral fallback", "article_url", article.ArticleURL)
		return result
	}
	result.Score = score
	result.Reason = reason
	return result
}

func sentimentPrompt(article domain.Article) string {
	return fmt.Sprintf(
		"Score the market sentiment of this headline for %s (%s) on a 0-100 scale "+
			"where 0 is maximally bearish and 100 is maximally bullish. "+
			"Respond as JSON with integer \"score\" and string \"reason\".\n\nHeadline: %s\nPress: %s",
		article.StockName, article.StockCode, article.Headline, article.Press,
	)
}

func parseSentiment(raw map[string]any) (score int, reason string, ok bool) {
	scoreVal, hasScore := raw["score"]
	reasonVal, hasReason := raw["reason"]
	if !hasScore || !hasReason {
		return 0, "", false
	}

	switch v := scoreVal.(type) {
	case float64:
		score = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, "", false
		}
		score = int(n)
	default:
		return 0, "", false
	}
	if score < 0 || score > 100 {
		return 0, "", false
	}

	reasonStr, ok := reasonVal.(string)
	if !ok {
		return 0, "", false
	}
	return score, reasonStr, true
}

func isEmergency(headline string) bool {
	lower := strings.ToLower(headline)
	for _, kw := range EmergencyKeywords {
		if strings.Contains(headline, kw) || strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
