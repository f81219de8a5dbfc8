package corrector

import (
	"slices"

	"github.com/hbollon/go-edlib"

	"ngramcorrector/internal/oracle"
)

// EditDistance is the unit-cost Levenshtein distance between two strings.
func EditDistance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}

// wordsDistance sums EditDistance over aligned words, padding the shorter
// side with empty words.
func wordsDistance(a, b []string) int {
	n := max(len(a), len(b))
	d := 0
	for i := range n {
		var x, y string
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		d += EditDistance(x, y)
	}
	return d
}

// scorer computes candidate scores against an original span.
type scorer struct {
	freq        oracle.Frequency
	phon        oracle.Phonetic
	phoneticMax int
}

// window is the aggregation window for an anchor of k words.
func window(k int) int {
	return max(1, k-1)
}

// aggregate is the mean frequency of every window of size w in words.
// Fewer than w words form a single window.
func (s scorer) aggregate(words []string, w int) int64 {
	wins := windows(canon(words), w)
	if len(wins) == 0 {
		return 0
	}
	var sum int64
	for _, win := range wins {
		sum += s.freq.Freq(win...)
	}
	return sum / int64(len(wins))
}

// phonetic reports whether candidate sounds exactly like original without
// being the same words.
func (s scorer) phonetic(original, candidate []string) bool {
	c := canon(candidate)
	if len(c) == 0 || len(c) > s.phoneticMax || slices.Equal(c, canon(original)) {
		return false
	}
	return slices.Equal(s.phon.PhraseSound(original), s.phon.PhraseSound(c))
}

// score rates candidate as a replacement for original. realized is the text
// the candidate produces, aggregated over windows of w words.
func (s scorer) score(original, candidate, realized []string, w int) Score {
	return Score{
		Phonetic:  s.phonetic(original, candidate),
		Support:   1,
		Frequency: s.aggregate(realized, w),
		Distance:  wordsDistance(original, candidate),
	}
}

// improves reports whether sc beats the frequency of the span it replaces.
func improves(sc Score, spanFreq int64) bool {
	return sc.Frequency > spanFreq
}
