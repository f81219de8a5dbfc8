// Package phonetic maps words to Double Metaphone codes and codes back to
// known words.
//
// A phrase signature holds one unit per word: the word's primary code, or
// the word itself behind a literal marker when it has no code (punctuation,
// digits). Reverse lookup yields readings that either keep the units apart
// or merge adjacent units, so "a lot" can be read back as "alot" and the
// other way round.
package phonetic

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"

	"ngramcorrector/internal/oracle"
)

const (
	literal = "="

	defaultMaxPerCode = 64
	// maxCodeLen is where Double Metaphone cuts its codes.
	maxCodeLen = 4
	// maxMergeUnits bounds how many units get merge readings; 2^(n-1)
	// compositions are enumerated.
	maxMergeUnits = 6
)

// Option configures an Index.
type Option func(*Index)

// WithMaxPerCode keeps only the n most frequent words per code.
func WithMaxPerCode(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxPerCode = n
		}
	}
}

// Index implements oracle.Phonetic. It is read-only after New.
type Index struct {
	byCode     map[string][]string
	maxPerCode int
}

var _ oracle.Phonetic = (*Index)(nil)

type entry struct {
	word  string
	count int64
}

// New indexes every word of vocab under its primary and secondary codes.
func New(vocab iter.Seq2[string, int64], opts ...Option) (*Index, error) {
	ix := &Index{maxPerCode: defaultMaxPerCode}
	for _, o := range opts {
		o(ix)
	}

	grouped := make(map[string][]entry)
	n := 0
	for w, c := range vocab {
		if w == "" || c <= 0 {
			continue
		}
		n++
		for _, code := range codes(w) {
			grouped[code] = append(grouped[code], entry{word: w, count: c})
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty phonetic vocabulary", oracle.ErrUnavailable)
	}

	ix.byCode = make(map[string][]string, len(grouped))
	for code, es := range grouped {
		slices.SortFunc(es, func(a, b entry) int {
			if c := cmp.Compare(b.count, a.count); c != 0 {
				return c
			}
			return cmp.Compare(a.word, b.word)
		})
		es = slices.CompactFunc(es, func(a, b entry) bool { return a.word == b.word })
		if len(es) > ix.maxPerCode {
			es = es[:ix.maxPerCode]
		}
		words := make([]string, len(es))
		for i, e := range es {
			words[i] = e.word
		}
		ix.byCode[code] = words
	}
	return ix, nil
}

// codes returns the distinct non-empty codes of word.
func codes(word string) []string {
	p, s := matchr.DoubleMetaphone(word)
	p, s = squeeze(p), squeeze(s)
	switch {
	case p == "":
		return nil
	case s == "" || s == p:
		return []string{p}
	}
	return []string{p, s}
}

// squeeze collapses runs of the same letter within a code.
func squeeze(code string) string {
	var b strings.Builder
	var prev rune
	for i, r := range code {
		if i > 0 && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Sound returns the signature unit of a single word.
func Sound(word string) string {
	if cs := codes(word); len(cs) > 0 {
		return cs[0]
	}
	return literal + word
}

func (ix *Index) PhraseSound(words []string) []string {
	sig := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		sig = append(sig, Sound(w))
	}
	return sig
}

func (ix *Index) SoundsLike(word string) []string {
	seen := map[string]bool{word: true}
	var out []string
	for _, code := range codes(word) {
		for _, w := range ix.byCode[code] {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}

// lookup returns the candidate words of a group of units. A merged group
// keeps every unit's letters, and its code must stay below the cut length:
// a cut code also matches longer words that swallow the last units.
func (ix *Index) lookup(units []string) []string {
	if len(units) == 1 {
		if w, ok := strings.CutPrefix(units[0], literal); ok {
			return []string{w}
		}
		return ix.byCode[units[0]]
	}
	for _, u := range units {
		if strings.HasPrefix(u, literal) {
			return nil
		}
	}
	key := strings.Join(units, "")
	if len(key) >= maxCodeLen {
		return nil
	}
	return ix.byCode[key]
}

// SoundsToWords yields the separate reading first, then every reading that
// merges adjacent units. Readings with a position nobody sounds like are
// skipped.
func (ix *Index) SoundsToWords(sig []string) iter.Seq[[][]string] {
	return func(yield func([][]string) bool) {
		if len(sig) == 0 {
			return
		}
		for groups := range compositions(len(sig)) {
			reading := make([][]string, 0, len(groups))
			ok := true
			start := 0
			for _, size := range groups {
				words := ix.lookup(sig[start : start+size])
				if len(words) == 0 {
					ok = false
					break
				}
				reading = append(reading, slices.Clone(words))
				start += size
			}
			if ok && !yield(reading) {
				return
			}
		}
	}
}

// compositions yields the ways to cut n units into contiguous groups, as
// group sizes, starting with all singletons. Past maxMergeUnits only the
// singletons are yielded.
func compositions(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if n > maxMergeUnits {
			ones := make([]int, n)
			for i := range ones {
				ones[i] = 1
			}
			yield(ones)
			return
		}
		cuts := n - 1
		for mask := (1 << cuts) - 1; mask >= 0; mask-- {
			// bit i set: cut between unit i and i+1
			var groups []int
			size := 1
			for i := 0; i < cuts; i++ {
				if mask&(1<<i) != 0 {
					groups = append(groups, size)
					size = 1
				} else {
					size++
				}
			}
			groups = append(groups, size)
			if !yield(groups) {
				return
			}
		}
	}
}
