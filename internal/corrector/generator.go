package corrector

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// generator proposes replacements for a single anchor n-gram.
type generator struct {
	scorer
	comboLimit     int
	decentRatio    float64
	maxSuggestions int
	logger         *slog.Logger
}

// generate returns distinct candidates for words, best first. Every
// candidate is strictly more frequent than target.
func (g *generator) generate(ctx context.Context, words []string, target int64) []Candidate {
	ctx, span := startSpan(ctx, "generate",
		attribute.String("ngram", strings.Join(words, " ")),
		attribute.Int64("ngram.freq", target),
	)
	defer span.End()

	w := window(len(words))
	found := make(map[string]Candidate)
	add := func(c []string) {
		if len(canon(c)) == 0 || slices.Equal(c, words) {
			return
		}
		sc := g.score(words, c, c, w)
		if !improves(sc, target) {
			return
		}
		key := joinWords(c)
		if old, ok := found[key]; ok && !sc.Better(old.Score) {
			return
		}
		found[key] = Candidate{Words: c, Score: sc}
	}

	for c := range permutations(words) {
		add(c)
	}
	// a single word agrees with every unigram on all-but-one position
	if len(words) > 1 {
		for _, nc := range g.freq.NgramLike(words) {
			add(nc.Words)
		}
	}
	if !g.anyDecent(found, target) {
		if c := g.phoneticGuess(ctx, words, target); c != nil {
			add(c)
		}
	}

	out := rank(slices.Collect(maps.Values(found)))
	if len(out) > g.maxSuggestions {
		out = out[:g.maxSuggestions]
	}
	span.SetAttributes(attribute.Int("candidates", len(out)))
	return out
}

func (g *generator) decent(sc Score, target int64) bool {
	return sc.Phonetic || float64(sc.Frequency) >= g.decentRatio*float64(target+1)
}

func (g *generator) anyDecent(found map[string]Candidate, target int64) bool {
	for _, c := range found {
		if g.decent(c.Score, target) {
			return true
		}
	}
	return false
}

// phoneticGuess reads the phrase signature back into words and returns the
// most frequent reading that beats target, padded to len(words). A reading
// of fewer words must also beat every n-gram of its own order in words. At
// most comboLimit combinations are looked up.
func (g *generator) phoneticGuess(ctx context.Context, words []string, target int64) []string {
	sig := g.phon.PhraseSound(words)
	budget := g.comboLimit
	truncated := false
	var best []string
	var bestFreq int64

readings:
	for reading := range g.phon.SoundsToWords(sig) {
		if ctx.Err() != nil {
			break
		}
		floor := g.orderFloor(words, len(reading), target)
		sets := make([][]string, len(reading))
		for i, ws := range reading {
			for _, w := range ws {
				if g.freq.Freqs(w) > target {
					sets[i] = append(sets[i], w)
				}
			}
			if len(sets[i]) == 0 {
				continue readings
			}
		}
		for combo := range product(sets) {
			if budget == 0 {
				truncated = true
				break readings
			}
			budget--
			if f := g.freq.Freq(combo...); f > floor && f > bestFreq {
				best, bestFreq = slices.Clone(combo), f
			}
		}
	}

	if truncated {
		g.logger.Debug("phonetic combinations truncated",
			slog.Any("words", words), slog.Int("limit", g.comboLimit))
		recordTruncation(ctx, len(words))
	}
	if best == nil {
		return nil
	}
	for len(best) < len(words) {
		best = append(best, "")
	}
	return best
}

// orderFloor is the count a reading of m words has to beat: target itself
// for a full-length reading, else the best m-gram already in words.
func (g *generator) orderFloor(words []string, m int, target int64) int64 {
	floor := target
	if m <= 0 || m >= len(words) {
		return floor
	}
	for i := 0; i+m <= len(words); i++ {
		floor = max(floor, g.freq.Freq(words[i:i+m]...))
	}
	return floor
}

// permutations yields every way of joining adjacent words together except
// leaving them all apart. Joined forms are padded with empty words.
func permutations(words []string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		n := len(words)
		if n < 2 {
			return
		}
		// bit i set: words i and i+1 stay apart
		for mask := 0; mask < (1<<(n-1))-1; mask++ {
			out := make([]string, 0, n)
			start := 0
			for i := 0; i < n-1; i++ {
				if mask&(1<<i) != 0 {
					out = append(out, strings.Join(words[start:i+1], ""))
					start = i + 1
				}
			}
			out = append(out, strings.Join(words[start:], ""))
			for len(out) < n {
				out = append(out, "")
			}
			if !yield(out) {
				return
			}
		}
	}
}

// product yields the cross product of sets in odometer order. The yielded
// slice is reused between iterations.
func product(sets [][]string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if len(sets) == 0 {
			return
		}
		idx := make([]int, len(sets))
		combo := make([]string, len(sets))
		for {
			for i, j := range idx {
				combo[i] = sets[i][j]
			}
			if !yield(combo) {
				return
			}
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(sets[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// rank sorts candidates best first, by text on equal scores.
func rank(cs []Candidate) []Candidate {
	slices.SortFunc(cs, func(a, b Candidate) int {
		if c := a.Score.Compare(b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Text(), b.Text())
	})
	return cs
}
