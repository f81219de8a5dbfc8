// Package lexicon finds known words near a misspelled one. The vocabulary is
// compiled into an FST keyed by word with the word's count as value, and
// searched with a Levenshtein automaton.
package lexicon

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
	"github.com/hbollon/go-edlib"

	"ngramcorrector/internal/oracle"
)

const defaultMaxDistance = 2

// Option configures a Lexicon.
type Option func(*Lexicon)

// WithMaxDistance sets the widest edit distance searched. Words of four
// runes or fewer are always searched at distance 1.
func WithMaxDistance(d uint8) Option {
	return func(l *Lexicon) {
		if d > 0 {
			l.maxDistance = d
		}
	}
}

// Lexicon implements oracle.Lexicon. It is read-only after New and safe for
// concurrent use.
type Lexicon struct {
	fst         *vellum.FST
	builders    map[uint8]*levenshtein.LevenshteinAutomatonBuilder
	maxDistance uint8
}

var _ oracle.Lexicon = (*Lexicon)(nil)

type entry struct {
	word  string
	count int64
}

// New compiles vocab. An empty vocabulary is an error.
func New(vocab iter.Seq2[string, int64], opts ...Option) (*Lexicon, error) {
	l := &Lexicon{maxDistance: defaultMaxDistance}
	for _, o := range opts {
		o(l)
	}

	var entries []entry
	for w, c := range vocab {
		if w == "" || c <= 0 {
			continue
		}
		entries = append(entries, entry{word: w, count: c})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty lexicon", oracle.ErrUnavailable)
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.word, b.word) })
	entries = slices.CompactFunc(entries, func(a, b entry) bool { return a.word == b.word })

	var buf bytes.Buffer
	b, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("lexicon builder: %w", err)
	}
	for _, e := range entries {
		if err := b.Insert([]byte(e.word), uint64(e.count)); err != nil {
			return nil, fmt.Errorf("lexicon insert %q: %w", e.word, err)
		}
	}
	if err := b.Close(); err != nil {
		return nil, fmt.Errorf("lexicon build: %w", err)
	}
	l.fst, err = vellum.Load(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("lexicon load: %w", err)
	}

	l.builders = make(map[uint8]*levenshtein.LevenshteinAutomatonBuilder)
	for d := uint8(1); d <= l.maxDistance; d++ {
		lb, err := levenshtein.NewLevenshteinAutomatonBuilder(d, true)
		if err != nil {
			return nil, fmt.Errorf("levenshtein automaton %d: %w", d, err)
		}
		l.builders[d] = lb
	}
	return l, nil
}

// Len returns the number of words in the lexicon.
func (l *Lexicon) Len() int { return l.fst.Len() }

// Count returns the stored count of word, or 0.
func (l *Lexicon) Count(word string) int64 {
	v, ok, err := l.fst.Get([]byte(word))
	if err != nil || !ok {
		return 0
	}
	return int64(v)
}

func (l *Lexicon) fuzziness(word string) uint8 {
	if utf8.RuneCountInString(word) <= 4 {
		return 1
	}
	return l.maxDistance
}

type match struct {
	word     string
	count    int64
	distance int
}

// neighbours returns known words within the search distance of word, closest
// first, then most frequent.
func (l *Lexicon) neighbours(word string) []match {
	if word == "" {
		return nil
	}
	d := l.fuzziness(word)
	dfa, err := l.builders[d].BuildDfa(word, d)
	if err != nil {
		return nil
	}
	var out []match
	itr, err := l.fst.Search(dfa, nil, nil)
	for err == nil {
		k, v := itr.Current()
		w := string(k)
		out = append(out, match{
			word:     w,
			count:    int64(v),
			distance: edlib.OSADamerauLevenshteinDistance(word, w),
		})
		err = itr.Next()
	}
	if err != nil && !errors.Is(err, vellum.ErrIteratorDone) {
		return nil
	}
	slices.SortFunc(out, func(a, b match) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.word, b.word)
	})
	return out
}

// Correct returns word when it is known, otherwise the closest, most
// frequent known word, or word unchanged when nothing is close.
func (l *Lexicon) Correct(word string) string {
	if l.Count(word) > 0 {
		return word
	}
	for _, m := range l.neighbours(word) {
		if m.word != word {
			return m.word
		}
	}
	return word
}

// Similar returns known words near word, excluding word itself.
func (l *Lexicon) Similar(word string) []string {
	var out []string
	for _, m := range l.neighbours(word) {
		if m.word != word {
			out = append(out, m.word)
		}
	}
	return out
}
