package corrector

import (
	"cmp"
	"fmt"
	"strings"

	"ngramcorrector/internal/document"
)

// Phase tells which pass produced a suggestion.
type Phase int

const (
	PhaseUnknown Phase = iota + 1 // zero-frequency token fixed by the lexicon
	PhaseNgram                    // rare n-gram fixed by the merger
)

func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseNgram:
		return "ngram"
	}
	return "invalid"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unknown":
		*p = PhaseUnknown
	case "ngram":
		*p = PhaseNgram
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// Score ranks a candidate: phonetic match, support and frequency descending,
// then edit distance ascending.
type Score struct {
	Phonetic  bool  `json:"phonetic"`
	Support   int   `json:"support"`
	Frequency int64 `json:"frequency"`
	Distance  int   `json:"distance"`
}

// Compare returns a negative number when s ranks before o.
func (s Score) Compare(o Score) int {
	if s.Phonetic != o.Phonetic {
		if s.Phonetic {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(o.Support, s.Support); c != 0 {
		return c
	}
	if c := cmp.Compare(o.Frequency, s.Frequency); c != 0 {
		return c
	}
	return cmp.Compare(s.Distance, o.Distance)
}

func (s Score) Better(o Score) bool { return s.Compare(o) < 0 }

// Candidate is a replacement for a span of words. An empty word deletes the
// token at that position.
type Candidate struct {
	Words []string `json:"words"`
	Score Score    `json:"score"`
}

func (c Candidate) Text() string { return joinWords(c.Words) }

// Suggestion is an accepted replacement for a span of the document.
type Suggestion struct {
	Span        []document.Token `json:"-"`
	Original    string           `json:"original"`
	Replacement []string         `json:"replacement"`
	Score       Score            `json:"score"`
	Phase       Phase            `json:"phase"`
	// Context is the realized text of the context window, empty for
	// unknown-token fixes.
	Context string `json:"context,omitempty"`
	// Preview is the first affected line with the suggestion applied.
	Preview string `json:"preview,omitempty"`
}

func (s Suggestion) changes() []document.Change {
	out := make([]document.Change, len(s.Span))
	last := len(s.Span) - 1
	for i, t := range s.Span {
		var r string
		switch {
		case i == last && len(s.Replacement) > len(s.Span):
			r = joinWords(s.Replacement[i:])
		case i < len(s.Replacement):
			r = s.Replacement[i]
		}
		out[i] = document.Change{Token: t, Replacement: r}
	}
	return out
}

// Applied records one change made to the text.
type Applied struct {
	Line        int    `json:"line"`
	Offset      int    `json:"offset"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Score       Score  `json:"score"`
	Phase       Phase  `json:"phase"`
	Iteration   int    `json:"iteration"`
}

type Result struct {
	Original  string    `json:"original"`
	Corrected string    `json:"corrected"`
	Applied   []Applied `json:"applied"`
}

// canon drops deletion markers.
func canon(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func joinWords(words []string) string {
	return strings.Join(canon(words), " ")
}
