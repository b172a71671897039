package news

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target number of characters per chunk,
	// matching the archiver's text-splitter configuration.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of overlapping characters between
	// consecutive chunks.
	DefaultChunkOverlap = 50
)

// Chunk is a single piece of a split article body, positionally ordered.
type Chunk struct {
	Text  string
	Index int
}

// splitSentences splits text into sentences using punctuation and newlines,
// adapted from the word-count splitter used elsewhere in this tree for a
// character-count budget instead of a token budget.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if r == '\n' || i == len(text)-1 || (i+1 < len(text) && unicode.IsSpace(rune(text[i+1]))) {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkText groups text into chunks of ~chunkSize characters with overlap,
// mirroring RecursiveCharacterTextSplitter's sentence-respecting behavior:
// it never splits mid-sentence except when a single sentence alone exceeds
// chunkSize, in which case that sentence becomes its own chunk.
func ChunkText(text string, chunkSize, overlap int) []Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}

	var chunks []Chunk
	idx := 0
	start := 0

	for start < len(sentences) {
		var buf strings.Builder
		length := 0
		end := start

		for end < len(sentences) {
			s := sentences[end]
			if length+len(s) > chunkSize && length > 0 {
				break
			}
			if buf.Len() > 0 {
				buf.WriteRune(' ')
			}
			buf.WriteString(s)
			length += len(s)
			end++
		}
		if end == start {
			// A single sentence already exceeds chunkSize; take it whole.
			buf.WriteString(sentences[end])
			end++
		}

		chunks = append(chunks, Chunk{Text: buf.String(), Index: idx})
		idx++

		overlapLen := 0
		newStart := end
		for newStart > start && overlapLen < overlap {
			newStart--
			overlapLen += len(sentences[newStart])
		}
		if newStart == start {
			start = end
		} else {
			start = newStart
		}
	}
	return chunks
}
