// Package store adapts the generic Neo4j repository to the sentiment
// persistence collaborator the analyzer depends on.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/repo"
)

// Neo4jSentimentStore persists analyzer output keyed on article_url, the
// field every Save/Exists call treats as the idempotency key.
type Neo4jSentimentStore struct {
	repo *repo.Neo4jRepo[domain.SentimentResult, string]
}

// NewNeo4jSentimentStore builds a store backed by driver, using a
// NewsSentiment node label.
func NewNeo4jSentimentStore(driver neo4j.DriverWithContext) *Neo4jSentimentStore {
	r := repo.NewNeo4jRepo[domain.SentimentResult, string](
		driver,
		"NewsSentiment",
		sentimentToMap,
		sentimentFromRecord,
		repo.WithIDKey[domain.SentimentResult, string]("article_url"),
	)
	return &Neo4jSentimentStore{repo: r}
}

// Exists implements domain.SentimentStore.
func (s *Neo4jSentimentStore) Exists(ctx context.Context, articleURL string) (bool, error) {
	ok, err := s.repo.Exists(ctx, articleURL)
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", articleURL, err)
	}
	return ok, nil
}

// Save implements domain.SentimentStore. It upserts on article_url so a
// redelivered message (at-least-once) overwrites rather than duplicates.
func (s *Neo4jSentimentStore) Save(ctx context.Context, result domain.SentimentResult) error {
	_, err := s.repo.Upsert(ctx, result)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", result.ArticleURL, err)
	}
	return nil
}

func sentimentToMap(r domain.SentimentResult) map[string]any {
	return map[string]any{
		"article_url":  r.ArticleURL,
		"stock_code":   r.StockCode,
		"headline":     r.Headline,
		"press":        r.Press,
		"score":        r.Score,
		"reason":       r.Reason,
		"published_at": r.PublishedAt.Format(time.RFC3339),
		"source":       r.Source,
	}
}

func sentimentFromRecord(rec *neo4j.Record) (domain.SentimentResult, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.SentimentResult{}, err
	}
	props := node.Props
	published, _ := time.Parse(time.RFC3339, strProp(props, "published_at"))
	return domain.SentimentResult{
		ArticleURL:  strProp(props, "article_url"),
		StockCode:   strProp(props, "stock_code"),
		Headline:    strProp(props, "headline"),
		Press:       strProp(props, "press"),
		Score:       intProp(props, "score"),
		Reason:      strProp(props, "reason"),
		PublishedAt: published,
		Source:      strProp(props, "source"),
	}, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intProp(props map[string]any, key string) int {
	if v, ok := props[key]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return 0
}
