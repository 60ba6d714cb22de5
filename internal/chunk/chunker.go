package chunk

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultMaxWords bounds a chunk when the caller passes no budget.
const DefaultMaxWords = 200

// Splitter cuts plain text into word-bounded chunks. Paragraphs are the
// packing unit; a single paragraph over budget is re-cut on sentence
// boundaries.
type Splitter struct {
	maxWords int
}

func NewSplitter(maxWords int) *Splitter {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Splitter{maxWords: maxWords}
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// Split returns the ordered chunks of text. Whitespace-only input yields
// nil. Every returned chunk is non-empty and trimmed.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []string
	var cur string
	curWords := 0
	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		pw := wordCount(para)
		if pw > s.maxWords {
			if cur != "" {
				chunks = append(chunks, cur)
				cur, curWords = "", 0
			}
			chunks = append(chunks, s.splitOversized(para)...)
			continue
		}
		if curWords+pw > s.maxWords && cur != "" {
			chunks = append(chunks, cur)
			cur, curWords = "", 0
		}
		if cur == "" {
			cur = para
		} else {
			cur += "\n\n" + para
		}
		curWords += pw
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// splitOversized packs the sentences of one oversized paragraph. A lone
// sentence over budget becomes a chunk of its own; it is never cut
// mid-sentence.
func (s *Splitter) splitOversized(para string) []string {
	var chunks []string
	var cur string
	curWords := 0
	for _, sentence := range splitSentences(para) {
		sw := wordCount(sentence)
		if curWords+sw > s.maxWords && cur != "" {
			chunks = append(chunks, cur)
			cur, curWords = "", 0
		}
		if cur == "" {
			cur = sentence
		} else {
			cur += " " + sentence
		}
		curWords += sw
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences cuts on terminal punctuation followed by whitespace,
// keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		end := loc[1]
		sentence := strings.TrimSpace(text[last:end])
		if sentence != "" {
			out = append(out, sentence)
		}
		last = end
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// Coerce normalizes arbitrary ingestion payloads to text. Non-string
// values are kept as their JSON encoding so structured content survives
// the pipeline instead of becoming a Go print form.
func Coerce(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		buf, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(buf)
	}
}
