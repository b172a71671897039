package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// Field length caps, matching the distilled spec's storage constraints.
const (
	MaxHeadlineLen = 500
	MaxPressLen    = 100
	MaxReasonLen   = 2000
	MaxURLLen      = 1000
)

var stockCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateStockCode enforces the KRX six-digit numeric ticker format used
// throughout the universe and every downstream record.
func ValidateStockCode(code string) error {
	if code == "" {
		return NewValidationError("stock_code", code, ErrEmptyField)
	}
	if !stockCodePattern.MatchString(code) {
		return NewValidationError("stock_code", code, ErrInvalidStockCode)
	}
	return nil
}

// ValidateArticleURL requires an absolute http(s) URL under MaxURLLen bytes;
// it is the idempotency key everywhere downstream so malformed values must
// be rejected at the edge rather than silently corrupted later.
func ValidateArticleURL(raw string) error {
	if raw == "" {
		return NewValidationError("article_url", raw, ErrEmptyField)
	}
	if len(raw) > MaxURLLen {
		return NewValidationError("article_url", raw, ErrFieldTooLong)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewValidationError("article_url", raw, ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("article_url", raw, ErrInvalidURL)
	}
	return nil
}

// ValidateHeadline enforces a non-empty headline within MaxHeadlineLen.
func ValidateHeadline(headline string) error {
	trimmed := strings.TrimSpace(headline)
	if trimmed == "" {
		return NewValidationError("headline", headline, ErrEmptyField)
	}
	if len([]rune(trimmed)) > MaxHeadlineLen {
		return NewValidationError("headline", headline, ErrFieldTooLong)
	}
	return nil
}

// ValidatePress enforces a non-empty press/source name within MaxPressLen.
func ValidatePress(press string) error {
	trimmed := strings.TrimSpace(press)
	if trimmed == "" {
		return NewValidationError("press", press, ErrEmptyField)
	}
	if len([]rune(trimmed)) > MaxPressLen {
		return NewValidationError("press", press, ErrFieldTooLong)
	}
	return nil
}

// ValidateReason enforces MaxReasonLen on an LLM-produced sentiment reason.
// Empty is allowed: a fallback reason is always substituted upstream of
// storage, never left blank by choice.
func ValidateReason(reason string) error {
	if len([]rune(reason)) > MaxReasonLen {
		return NewValidationError("reason", reason, ErrFieldTooLong)
	}
	return nil
}

// ValidateArticle runs every field check and returns the first failure.
func ValidateArticle(a Article) error {
	if err := ValidateStockCode(a.StockCode); err != nil {
		return err
	}
	if err := ValidateHeadline(a.Headline); err != nil {
		return err
	}
	if err := ValidatePress(a.Press); err != nil {
		return err
	}
	if err := ValidateArticleURL(a.ArticleURL); err != nil {
		return err
	}
	return nil
}

// DefaultNoiseKeywords are substrings that mark a headline as promotional or
// otherwise not real news. Loaded as data (not const) so an operator can
// extend the list without a recompile in a future revision; see
// NewsFetcher's noise filter.
var DefaultNoiseKeywords = []string{
	"[광고]",
	"[PR]",
	"이벤트",
	"공모주 청약",
}

// IsNoise reports whether headline contains any noise keyword.
func IsNoise(headline string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(headline, kw) {
			return true
		}
	}
	return false
}
