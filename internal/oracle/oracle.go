// Package oracle declares the read-only lookup services the corrector is
// built on. Callers depend only on these interfaces; the concrete backends
// live in ngramindex, lexicon and phonetic.
package oracle

import (
	"errors"
	"iter"
)

// MaxOrder is the longest word tuple a Frequency oracle answers for.
const MaxOrder = 3

// ErrUnavailable marks an oracle that could not be constructed, e.g. an index
// that failed to load. It is a construction-time failure only.
var ErrUnavailable = errors.New("oracle unavailable")

// NgramCount is a corpus n-gram together with its observed count.
type NgramCount struct {
	Words []string
	Count int64
}

// Frequency answers corpus frequency queries over word tuples.
// Implementations must be immutable and safe for concurrent use.
type Frequency interface {
	// Freq returns the count of the tuple. Tuples outside 1..MaxOrder words
	// have frequency 0.
	Freq(words ...string) int64
	// Freqs is the single-word shortcut.
	Freqs(word string) int64
	// NgramLike returns corpus n-grams of the same length that agree with
	// words on every position but one.
	NgramLike(words []string) []NgramCount
}

// Lexicon answers nearest-known-word queries.
type Lexicon interface {
	// Correct returns the best known correction, or word unchanged.
	Correct(word string) string
	// Similar returns known words in a small edit-distance neighbourhood.
	Similar(word string) []string
}

// Phonetic maps phrases to phonetic signatures and back.
type Phonetic interface {
	// PhraseSound returns one signature unit per sounded word.
	PhraseSound(words []string) []string
	// SoundsLike returns known words sharing a code with word.
	SoundsLike(word string) []string
	// SoundsToWords yields readings of sig. Each reading holds one set of
	// candidate words per position; positions may cover several units.
	SoundsToWords(sig []string) iter.Seq[[][]string]
}
