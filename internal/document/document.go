// Package document holds the text being corrected as lines plus
// position-addressed tokens derived from them.
package document

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"ngramcorrector/internal/oracle"
)

// ErrStaleToken is returned by ApplyChanges and Preview when a change refers
// to a token that no longer matches the document text.
var ErrStaleToken = errors.New("stale token")

var tokenRe = regexp.MustCompile(`\p{L}+|\p{N}+|[^\s\p{L}\p{N}]`)

// Token is a lowercased token and its position. Offset is a byte offset into
// the line.
type Token struct {
	Text   string
	Line   int
	Index  int
	Offset int

	width int
}

// End returns the byte offset just past the token in its line.
func (t Token) End() int { return t.Offset + t.size() }

func (t Token) size() int {
	if t.width > 0 {
		return t.width
	}
	return len(t.Text)
}

// Change replaces Token with Replacement. An empty Replacement deletes it.
type Change struct {
	Token       Token
	Replacement string
}

// Document is a multi-line text and its tokens. Tokens are rebuilt wholesale
// after every edit; tokens obtained before ApplyChanges are invalid after it.
type Document struct {
	mu     sync.RWMutex
	lines  []string
	tokens [][]Token
}

// New tokenizes text. Lines are split on '\n' and String joins them back
// unchanged.
func New(text string) *Document {
	d := &Document{}
	d.tokenize(strings.Split(text, "\n"))
	return d
}

func (d *Document) tokenize(lines []string) {
	toks := make([][]Token, len(lines))
	for n, line := range lines {
		toks[n] = tokenizeLine(n, line)
	}
	d.lines = lines
	d.tokens = toks
}

// tokenizeLine scans forward once, so every token's offset follows the
// previous token's end even when the same text repeats.
func tokenizeLine(n int, line string) []Token {
	locs := tokenRe.FindAllStringIndex(line, -1)
	toks := make([]Token, 0, len(locs))
	for i, loc := range locs {
		toks = append(toks, Token{
			Text:   strings.ToLower(line[loc[0]:loc[1]]),
			Line:   n,
			Index:  i,
			Offset: loc[0],
			width:  loc[1] - loc[0],
		})
	}
	return toks
}

func (d *Document) snapshot() [][]Token {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tokens
}

// String returns the current text.
func (d *Document) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// Lines returns a copy of the current lines.
func (d *Document) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.lines)
}

// Tokens returns the tokens of every line.
func (d *Document) Tokens() [][]Token {
	return slices.Clone(d.snapshot())
}

// TotalTokens counts tokens over all lines.
func (d *Document) TotalTokens() int {
	total := 0
	for _, line := range d.snapshot() {
		total += len(line)
	}
	return total
}

// Words returns the lookup key of an n-gram.
func Words(toks []Token) []string {
	words := make([]string, len(toks))
	for i, t := range toks {
		words[i] = t.Text
	}
	return words
}

func isWord(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// UnknownTokens yields word tokens the corpus has never seen.
func (d *Document) UnknownTokens(freq oracle.Frequency) iter.Seq[Token] {
	toks := d.snapshot()
	return func(yield func(Token) bool) {
		for _, line := range toks {
			for _, t := range line {
				if !isWord(t.Text) || freq.Freqs(t.Text) > 0 {
					continue
				}
				if !yield(t) {
					return
				}
			}
		}
	}
}

// Ngrams yields every window of size contiguous tokens within a line.
func (d *Document) Ngrams(size int) iter.Seq[[]Token] {
	toks := d.snapshot()
	return func(yield func([]Token) bool) {
		if size < 1 {
			return
		}
		for _, line := range toks {
			for i := 0; i+size <= len(line); i++ {
				if !yield(line[i : i+size : i+size]) {
					return
				}
			}
		}
	}
}

// NgramFreqs pairs every n-gram of size with its corpus frequency.
func (d *Document) NgramFreqs(freq oracle.Frequency, size int) iter.Seq2[[]Token, int64] {
	return func(yield func([]Token, int64) bool) {
		for ng := range d.Ngrams(size) {
			if !yield(ng, freq.Freq(Words(ng)...)) {
				return
			}
		}
	}
}

// NgramContext returns span with up to size-1 neighbouring tokens on each
// side. The walk continues into adjacent lines, skipping empty ones, and
// returns less context at the document edges.
func (d *Document) NgramContext(span []Token, size int) []Token {
	if len(span) == 0 || size < 2 {
		return slices.Clone(span)
	}
	toks := d.snapshot()
	first, last := span[0], span[len(span)-1]
	if first.Line < 0 || first.Line >= len(toks) || last.Line < 0 || last.Line >= len(toks) {
		return slices.Clone(span)
	}
	need := size - 1

	before := make([]Token, 0, need)
	l, i := first.Line, min(first.Index-1, len(toks[first.Line])-1)
	for len(before) < need && l >= 0 {
		if i < 0 {
			l--
			if l >= 0 {
				i = len(toks[l]) - 1
			}
			continue
		}
		before = append(before, toks[l][i])
		i--
	}
	slices.Reverse(before)

	after := make([]Token, 0, need)
	l, i = last.Line, max(last.Index+1, 0)
	for len(after) < need && l < len(toks) {
		if i >= len(toks[l]) {
			l++
			i = 0
			continue
		}
		after = append(after, toks[l][i])
		i++
	}

	ctx := make([]Token, 0, len(before)+len(span)+len(after))
	ctx = append(ctx, before...)
	ctx = append(ctx, span...)
	return append(ctx, after...)
}

// Preview returns the lines that ApplyChanges would produce, leaving the
// document untouched.
func (d *Document) Preview(changes []Change) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rewrite(changes)
}

// ApplyChanges rewrites the lines and re-tokenizes the whole document. On
// error the document is left unchanged.
func (d *Document) ApplyChanges(changes []Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines, err := d.rewrite(changes)
	if err != nil {
		return err
	}
	d.tokenize(lines)
	return nil
}

// rewrite applies changes left to right, tracking per line how far earlier
// edits shifted later offsets.
func (d *Document) rewrite(changes []Change) ([]string, error) {
	lines := slices.Clone(d.lines)
	if len(changes) == 0 {
		return lines, nil
	}
	ordered := slices.Clone(changes)
	slices.SortStableFunc(ordered, func(a, b Change) int {
		if a.Token.Line != b.Token.Line {
			return a.Token.Line - b.Token.Line
		}
		return a.Token.Offset - b.Token.Offset
	})

	off := make([]int, len(lines))
	for _, c := range ordered {
		t := c.Token
		if t.Line < 0 || t.Line >= len(lines) {
			return nil, fmt.Errorf("%w: line %d out of range", ErrStaleToken, t.Line)
		}
		line := lines[t.Line]
		pos := t.Offset + off[t.Line]
		end := pos + t.size()
		if pos < 0 || end > len(line) || strings.ToLower(line[pos:end]) != t.Text {
			return nil, fmt.Errorf("%w: %q at %d:%d", ErrStaleToken, t.Text, t.Line, t.Offset)
		}
		repl := MatchCap(line[pos:end], c.Replacement)
		if repl == "" && pos > 0 {
			if r, n := utf8.DecodeLastRuneInString(line[:pos]); unicode.IsSpace(r) {
				pos -= n
			}
		}
		lines[t.Line] = line[:pos] + repl + line[end:]
		off[t.Line] += len(repl) - (end - pos)
	}
	return lines, nil
}
