package corrector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ngramcorrector/internal/oracle"
)

// WordStore persists custom dictionary words.
type WordStore interface {
	Add(ctx context.Context, word string) error
	Remove(ctx context.Context, word string) error
	All(ctx context.Context) ([]string, error)
}

// overlay reports a fixed high frequency for custom words and defers
// everything else to the corpus.
type overlay struct {
	base oracle.Frequency
	freq int64

	mu    sync.RWMutex
	words map[string]bool
}

var _ oracle.Frequency = (*overlay)(nil)

func newOverlay(base oracle.Frequency, freq int64) *overlay {
	return &overlay{base: base, freq: freq, words: make(map[string]bool)}
}

func (o *overlay) custom(word string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.words[word]
}

func (o *overlay) Freq(words ...string) int64 {
	if len(words) == 1 {
		return o.Freqs(words[0])
	}
	return o.base.Freq(words...)
}

func (o *overlay) Freqs(word string) int64 {
	if o.custom(word) {
		return o.freq
	}
	return o.base.Freqs(word)
}

func (o *overlay) NgramLike(words []string) []oracle.NgramCount {
	return o.base.NgramLike(words)
}

func (o *overlay) set(word string, on bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if on {
		o.words[word] = true
	} else {
		delete(o.words, word)
	}
}

// LoadCustomWords pulls every stored custom word into memory.
func (c *Corrector) LoadCustomWords(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	words, err := c.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load custom words: %w", err)
	}
	for _, w := range words {
		c.freq.set(strings.ToLower(w), true)
	}
	c.logger.Info("custom words loaded", slog.Int("count", len(words)))
	return len(words), nil
}

// AddCustomWord adds a custom word to the dictionary and the store.
func (c *Corrector) AddCustomWord(ctx context.Context, word string) error {
	lw := strings.ToLower(strings.TrimSpace(word))
	if lw == "" {
		return fmt.Errorf("empty custom word")
	}
	if c.store != nil {
		if err := c.store.Add(ctx, lw); err != nil {
			return fmt.Errorf("add custom word %q: %w", lw, err)
		}
	}
	c.freq.set(lw, true)
	return nil
}

// RemoveCustomWord removes a custom word from the dictionary and the store.
func (c *Corrector) RemoveCustomWord(ctx context.Context, word string) error {
	lw := strings.ToLower(strings.TrimSpace(word))
	if c.store != nil {
		if err := c.store.Remove(ctx, lw); err != nil {
			return fmt.Errorf("remove custom word %q: %w", lw, err)
		}
	}
	c.freq.set(lw, false)
	return nil
}

// IsCustomWord reports whether word was added as a custom word.
func (c *Corrector) IsCustomWord(word string) bool {
	return c.freq.custom(strings.ToLower(word))
}
