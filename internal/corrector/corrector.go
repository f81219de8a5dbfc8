// Package corrector finds locally rare word sequences in a text and replaces
// them with similar but far more common ones.
//
// A pass first fixes tokens the corpus has never seen, using the lexicon,
// then walks the document's n-grams from rarest to most common and asks the
// merger for a better rewrite of each one's context window. Passes repeat
// until nothing changes.
package corrector

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"ngramcorrector/internal/document"
	"ngramcorrector/internal/oracle"
	"ngramcorrector/pkg/options"
)

type Corrector struct {
	freq   *overlay
	lex    oracle.Lexicon
	phon   oracle.Phonetic
	store  WordStore
	gen    *generator
	opts   options.CorrectorOptions
	logger *slog.Logger
}

// New builds a Corrector over the given oracles. store may be nil, in which
// case custom words live only in memory.
func New(freq oracle.Frequency, lex oracle.Lexicon, phon oracle.Phonetic, store WordStore, opts ...options.Options) (*Corrector, error) {
	switch {
	case freq == nil:
		return nil, fmt.Errorf("%w: no frequency oracle", oracle.ErrUnavailable)
	case lex == nil:
		return nil, fmt.Errorf("%w: no lexicon oracle", oracle.ErrUnavailable)
	case phon == nil:
		return nil, fmt.Errorf("%w: no phonetic oracle", oracle.ErrUnavailable)
	}
	o := options.Resolve(opts...)
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("corrector options: %w", err)
	}

	ov := newOverlay(freq, o.CustomWordFrequency)
	return &Corrector{
		freq:  ov,
		lex:   lex,
		phon:  phon,
		store: store,
		gen: &generator{
			scorer:         scorer{freq: ov, phon: phon, phoneticMax: o.PhoneticMaxTokens},
			comboLimit:     o.PhoneticComboLimit,
			decentRatio:    o.DecentRatio,
			maxSuggestions: o.MaxSuggestions,
			logger:         o.Logger,
		},
		opts:   o,
		logger: o.Logger,
	}, nil
}

// Correct rewrites text until no suggestion clears its acceptance test, the
// iteration limit is reached or a previous text comes back.
func (c *Corrector) Correct(ctx context.Context, text string) (Result, error) {
	ctx, span := startSpan(ctx, "Correct", attribute.Int("text.bytes", len(text)))
	defer span.End()

	doc := document.New(text)
	res := Result{Original: text, Corrected: text}
	seen := map[string]bool{text: true}

	for it := 1; it <= c.opts.MaxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return res, spanError(span, err)
		}
		batch, err := c.next(ctx, doc)
		if err != nil {
			return res, spanError(span, err)
		}
		if len(batch) == 0 {
			break
		}

		var changes []document.Change
		for _, s := range batch {
			changes = append(changes, s.changes()...)
		}
		if err := doc.ApplyChanges(changes); err != nil {
			return res, spanError(span, fmt.Errorf("apply changes: %w", err))
		}
		for _, s := range batch {
			first := s.Span[0]
			res.Applied = append(res.Applied, Applied{
				Line:        first.Line,
				Offset:      first.Offset,
				Original:    s.Original,
				Replacement: joinWords(s.Replacement),
				Score:       s.Score,
				Phase:       s.Phase,
				Iteration:   it,
			})
			c.logger.Debug("applied suggestion",
				slog.Int("iteration", it),
				slog.String("phase", s.Phase.String()),
				slog.String("original", s.Original),
				slog.String("replacement", joinWords(s.Replacement)),
			)
		}
		recordApplied(ctx, batch[0].Phase, len(batch))

		res.Corrected = doc.String()
		if seen[res.Corrected] {
			c.logger.Debug("text repeated, stopping", slog.Int("iteration", it))
			break
		}
		seen[res.Corrected] = true
	}

	span.SetAttributes(attribute.Int("applied", len(res.Applied)))
	return res, nil
}

// next returns the changes of one pass: every unknown-token fix if there is
// any, otherwise the single best n-gram suggestion.
func (c *Corrector) next(ctx context.Context, doc *document.Document) ([]Suggestion, error) {
	if fixes := c.unknownSuggestions(ctx, doc); len(fixes) > 0 {
		return fixes, nil
	}
	sugs, err := c.ngramSuggestions(ctx, doc)
	if err != nil || len(sugs) == 0 {
		return nil, err
	}
	best := slices.MinFunc(sugs, func(a, b Suggestion) int { return a.Score.Compare(b.Score) })
	return []Suggestion{best}, nil
}

// Suggest runs both phases over text without changing it. Unknown-token
// fixes come first in document order, then n-gram suggestions best first.
func (c *Corrector) Suggest(ctx context.Context, text string) ([]Suggestion, error) {
	ctx, span := startSpan(ctx, "Suggest", attribute.Int("text.bytes", len(text)))
	defer span.End()

	doc := document.New(text)
	out := c.unknownSuggestions(ctx, doc)
	sugs, err := c.ngramSuggestions(ctx, doc)
	if err != nil {
		return nil, spanError(span, err)
	}
	slices.SortStableFunc(sugs, func(a, b Suggestion) int { return a.Score.Compare(b.Score) })
	out = append(out, sugs...)

	for i, s := range out {
		lines, err := doc.Preview(s.changes())
		if err != nil {
			return nil, fmt.Errorf("preview suggestion: %w", err)
		}
		out[i].Preview = lines[s.Span[0].Line]
	}
	return out, nil
}

func (c *Corrector) unknownSuggestions(ctx context.Context, doc *document.Document) []Suggestion {
	var out []Suggestion
	for t := range doc.UnknownTokens(c.freq) {
		fix := c.lex.Correct(t.Text)
		f := c.freq.Freqs(fix)
		if fix == t.Text || f == 0 {
			continue
		}
		out = append(out, Suggestion{
			Span:        []document.Token{t},
			Original:    t.Text,
			Replacement: []string{fix},
			Score: Score{
				Phonetic:  c.gen.phonetic([]string{t.Text}, []string{fix}),
				Support:   1,
				Frequency: f,
				Distance:  EditDistance(t.Text, fix),
			},
			Phase: PhaseUnknown,
		})
	}
	recordSuggestions(ctx, PhaseUnknown, len(out))
	return out
}

type target struct {
	toks []document.Token
	freq int64
}

func (c *Corrector) ngramSuggestions(ctx context.Context, doc *document.Document) ([]Suggestion, error) {
	size := min(oracle.MaxOrder, doc.TotalTokens())
	if size == 0 {
		return nil, nil
	}
	var targets []target
	for toks, f := range doc.NgramFreqs(c.freq, size) {
		targets = append(targets, target{toks: toks, freq: f})
	}
	slices.SortStableFunc(targets, func(a, b target) int { return cmp.Compare(a.freq, b.freq) })
	if c.opts.MaxTargets > 0 && len(targets) > c.opts.MaxTargets {
		targets = targets[:c.opts.MaxTargets]
	}

	var out []Suggestion
	for _, t := range targets {
		s, ok, err := c.merge(ctx, doc, t.toks, t.freq)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	recordSuggestions(ctx, PhaseNgram, len(out))
	return out, nil
}

// Alternatives returns known words close to word in spelling or sound whose
// frequency is of the same order of magnitude or higher, closest first.
func (c *Corrector) Alternatives(word string) []string {
	word = strings.ToLower(word)
	band := popularity(c.freq.Freqs(word))
	seen := map[string]bool{word: true}
	var out []string
	for _, w := range slices.Concat(c.lex.Similar(word), c.phon.SoundsLike(word)) {
		if seen[w] {
			continue
		}
		seen[w] = true
		if popularity(c.freq.Freqs(w)) >= band {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		if d := cmp.Compare(EditDistance(word, a), EditDistance(word, b)); d != 0 {
			return d
		}
		return cmp.Compare(a, b)
	})
	return out
}

func popularity(f int64) int {
	return int(math.Round(math.Log(float64(f) + 1)))
}
