package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// SentenceSplitter breaks text into sentences, in document order.
type SentenceSplitter interface {
	SplitSentences(text string) ([]string, error)
}

// SplitterFunc adapts a plain function to SentenceSplitter.
type SplitterFunc func(text string) ([]string, error)

// SplitSentences calls f(text).
func (f SplitterFunc) SplitSentences(text string) ([]string, error) {
	return f(text)
}

// punktSplitter uses the pretrained English Punkt model.
type punktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the English Punkt model.
func NewPunktSplitter() (SentenceSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &punktSplitter{tokenizer: tokenizer}, nil
}

func (p *punktSplitter) SplitSentences(text string) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("punkt tokenizer panicked: %v", r)
		}
	}()

	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// SplitOnPeriods is the degraded splitter: it cuts on '.' and puts the
// period back on every non-empty piece.
func SplitOnPeriods(text string) []string {
	var out []string
	for _, piece := range strings.Split(text, ".") {
		if t := strings.TrimSpace(piece); t != "" {
			out = append(out, t+".")
		}
	}
	return out
}

// sentencesOf runs the splitter and falls back to SplitOnPeriods on failure.
func sentencesOf(splitter SentenceSplitter, text string, logger *slog.Logger) []string {
	if splitter == nil {
		return SplitOnPeriods(text)
	}
	raw, err := splitter.SplitSentences(text)
	if err != nil {
		logger.Warn("sentence tokenization failed, using simple split", "err", err)
		return SplitOnPeriods(text)
	}
	out := raw[:0:0]
	for _, s := range raw {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
