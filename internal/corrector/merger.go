package corrector

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"ngramcorrector/internal/document"
)

// realization is the context window rewritten by one or more candidates.
type realization struct {
	Words []string
	Text  string
	Score Score
}

// merge runs the generator over every n-gram of the target's context window
// and returns the best rewrite of that window, if it beats both the target
// and the window as it stands.
func (c *Corrector) merge(ctx context.Context, doc *document.Document, target []document.Token, targetFreq int64) (Suggestion, bool, error) {
	k := len(target)
	ctxToks := doc.NgramContext(target, k)
	words := document.Words(ctxToks)

	ctx, span := startSpan(ctx, "merge",
		attribute.String("target", strings.Join(document.Words(target), " ")),
		attribute.String("context", strings.Join(words, " ")),
	)
	defer span.End()

	anchors := len(ctxToks) - k + 1
	if anchors < 1 {
		return Suggestion{}, false, nil
	}
	perAnchor := make([][]Candidate, anchors)
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers())
	for i := range anchors {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			anchor := words[i : i+k]
			perAnchor[i] = c.gen.generate(egctx, anchor, c.freq.Freq(anchor...))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Suggestion{}, false, err
	}

	w := window(k)
	ranked := slices.DeleteFunc(c.gen.unify(words, k, perAnchor), func(r realization) bool {
		return c.gen.dropsSupport(words, r.Words, w)
	})
	if len(ranked) == 0 {
		return Suggestion{}, false, nil
	}
	best := ranked[0]
	baseline := max(targetFreq, c.gen.aggregate(words, w))
	c.logger.Debug("merged suggestions",
		slog.String("context", strings.Join(words, " ")),
		slog.String("best", best.Text),
		slog.Int64("freq", best.Score.Frequency),
		slog.Int64("baseline", baseline),
		slog.Int("support", best.Score.Support),
	)
	if !improves(best.Score, baseline) {
		return Suggestion{}, false, nil
	}

	lo, hi := diffRange(words, best.Words)
	return Suggestion{
		Span:        slices.Clone(ctxToks[lo:hi]),
		Original:    strings.Join(words[lo:hi], " "),
		Replacement: slices.Clone(best.Words[lo:hi]),
		Score:       best.Score,
		Phase:       PhaseNgram,
		Context:     best.Text,
	}, true, nil
}

func (c *Corrector) workers() int {
	if c.opts.Workers > 0 {
		return c.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// unify realizes every anchor's candidates into the context window and
// merges those that produce the same text. Anchor i covers ctx[i:i+k]. The
// result is ranked best first and never contains the unchanged window.
func (s scorer) unify(ctx []string, k int, perAnchor [][]Candidate) []realization {
	unchanged := strings.Join(ctx, " ")
	byText := make(map[string]*realization)
	var order []string
	for i, cands := range perAnchor {
		for _, cand := range cands {
			words := realize(ctx, i, k, cand.Words)
			text := joinWords(words)
			if text == unchanged {
				continue
			}
			r, ok := byText[text]
			if !ok {
				byText[text] = &realization{Words: words, Text: text, Score: cand.Score}
				order = append(order, text)
				continue
			}
			r.Score.Support += cand.Score.Support
			r.Score.Phonetic = r.Score.Phonetic || cand.Score.Phonetic
			r.Score.Distance = min(r.Score.Distance, cand.Score.Distance)
		}
	}

	out := make([]realization, 0, len(order))
	w := window(k)
	for _, text := range order {
		r := byText[text]
		r.Score.Frequency = s.aggregate(r.Words, w)
		out = append(out, *r)
	}
	slices.SortStableFunc(out, func(a, b realization) int {
		if c := a.Score.Compare(b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
	return out
}

// dropsSupport reports whether after is shorter than before and loses a
// window of w words the corpus has seen. Losing only unseen windows, as when
// a doubled word goes, is allowed.
func (s scorer) dropsSupport(before, after []string, w int) bool {
	b := strings.Fields(joinWords(before))
	a := strings.Fields(joinWords(after))
	if len(a) >= len(b) {
		return false
	}
	kept := make(map[string]int)
	for _, win := range windows(a, w) {
		kept[strings.Join(win, " ")]++
	}
	for _, win := range windows(b, w) {
		key := strings.Join(win, " ")
		if kept[key] > 0 {
			kept[key]--
			continue
		}
		if s.freq.Freq(win...) > 0 {
			return true
		}
	}
	return false
}

// windows splits words into every run of w, or one run when shorter.
func windows(words []string, w int) [][]string {
	if len(words) == 0 {
		return nil
	}
	if len(words) <= w {
		return [][]string{words}
	}
	out := make([][]string, 0, len(words)-w+1)
	for i := 0; i+w <= len(words); i++ {
		out = append(out, words[i:i+w])
	}
	return out
}

// realize copies ctx with words substituted at position i. The result keeps
// one entry per context token; a candidate longer than the anchor has its
// tail folded into the anchor's last token.
func realize(ctx []string, i, k int, words []string) []string {
	out := slices.Clone(ctx)
	for j := range k {
		switch {
		case j >= len(words):
			out[i+j] = ""
		case j == k-1 && len(words) > k:
			out[i+j] = strings.Join(canon(words[j:]), " ")
		default:
			out[i+j] = words[j]
		}
	}
	return out
}

// diffRange returns the smallest [lo, hi) outside of which a and b agree.
// a and b have the same length.
func diffRange(a, b []string) (int, int) {
	lo := 0
	for lo < len(a) && a[lo] == b[lo] {
		lo++
	}
	hi := len(a)
	for hi > lo && a[hi-1] == b[hi-1] {
		hi--
	}
	return lo, hi
}
