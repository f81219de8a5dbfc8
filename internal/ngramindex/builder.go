// Package ngramindex stores corpus counts for words and word tuples of up to
// three words. Builder collects counts in memory; Write lays them out as a
// word table and a sorted n-gram table that Open maps read-only.
package ngramindex

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"fmt"
	"iter"
	"math"
	"os"
	"slices"
	"strings"

	"ngramcorrector/internal/oracle"
)

const sep = "\x00"

// Builder accumulates n-gram counts.
type Builder struct {
	counts map[string]int64
}

func NewBuilder() *Builder {
	return &Builder{counts: make(map[string]int64)}
}

// Add adds count to the tuple. Words are lowercased; tuples outside
// 1..oracle.MaxOrder words or containing empty words are ignored.
func (b *Builder) Add(count int64, words ...string) {
	if len(words) == 0 || len(words) > oracle.MaxOrder || count <= 0 {
		return
	}
	key := make([]string, len(words))
	for i, w := range words {
		w = strings.ToLower(w)
		if w == "" || strings.Contains(w, sep) {
			return
		}
		key[i] = w
	}
	b.counts[strings.Join(key, sep)] += count
}

// Len returns the number of distinct tuples added.
func (b *Builder) Len() int { return len(b.counts) }

// Memory returns an in-memory index over the current counts.
func (b *Builder) Memory() *Memory {
	m := &Memory{counts: make(map[string]int64, len(b.counts))}
	for k, v := range b.counts {
		m.counts[k] = v
		words := strings.Split(k, sep)
		m.byOrder[len(words)] = append(m.byOrder[len(words)], oracle.NgramCount{Words: words, Count: v})
	}
	for i := range m.byOrder {
		slices.SortFunc(m.byOrder[i], func(a, b oracle.NgramCount) int {
			return slices.Compare(a.Words, b.Words)
		})
	}
	return m
}

// vocabulary returns every word that appears in any tuple, sorted.
func (b *Builder) vocabulary() []string {
	seen := make(map[string]struct{})
	for k := range b.counts {
		for _, w := range strings.Split(k, sep) {
			seen[w] = struct{}{}
		}
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// Write stores the counts as a word table at wordPath and an n-gram table at
// ngramPath. Counts above the 32-bit record field saturate.
func (b *Builder) Write(wordPath, ngramPath string) error {
	vocab := b.vocabulary()
	ids := make(map[string]uint32, len(vocab))
	for i, w := range vocab {
		ids[w] = uint32(i + 1)
	}
	if err := writeWords(wordPath, vocab); err != nil {
		return err
	}

	recs := make([]record, 0, len(b.counts))
	for k, v := range b.counts {
		var r record
		for i, w := range strings.Split(k, sep) {
			r.id[i] = ids[w]
		}
		r.freq = uint32(min(v, math.MaxUint32))
		recs = append(recs, r)
	}
	slices.SortFunc(recs, func(a, b record) int { return compareIDs(a.id, b.id) })
	return writeNgrams(ngramPath, recs)
}

func writeWords(path string, vocab []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create word table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	var hdr [headerSize]byte
	copy(hdr[:4], wordMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(vocab)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var lenBuf [4]byte
	for _, word := range vocab {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(word)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.WriteString(word); err != nil {
			return err
		}
		// NUL terminator plus padding to the next 4-byte boundary
		pad := make([]byte, wordPadding(len(word)))
		if _, err := w.Write(pad); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeNgrams(path string, recs []record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ngram table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	var hdr [headerSize]byte
	copy(hdr[:4], ngramMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(recs)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var buf [recordSize]byte
	for _, r := range recs {
		r.put(buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Memory is a map-backed frequency oracle.
type Memory struct {
	counts  map[string]int64
	byOrder [oracle.MaxOrder + 1][]oracle.NgramCount
}

var _ oracle.Frequency = (*Memory)(nil)

func (m *Memory) Freq(words ...string) int64 {
	if len(words) == 0 || len(words) > oracle.MaxOrder {
		return 0
	}
	return m.counts[strings.Join(words, sep)]
}

func (m *Memory) Freqs(word string) int64 { return m.counts[word] }

func (m *Memory) NgramLike(words []string) []oracle.NgramCount {
	n := len(words)
	if n < 2 || n > oracle.MaxOrder {
		return nil
	}
	var out []oracle.NgramCount
	for _, ng := range m.byOrder[n] {
		if matching(words, ng.Words) == n-1 {
			out = append(out, oracle.NgramCount{Words: slices.Clone(ng.Words), Count: ng.Count})
		}
	}
	sortLike(out)
	return out
}

// Vocabulary yields every single word with its count.
func (m *Memory) Vocabulary() iter.Seq2[string, int64] {
	return func(yield func(string, int64) bool) {
		for _, ng := range m.byOrder[1] {
			if !yield(ng.Words[0], ng.Count) {
				return
			}
		}
	}
}

func matching(a, b []string) int {
	n := 0
	for i := range a {
		if a[i] == b[i] {
			n++
		}
	}
	return n
}

func sortLike(out []oracle.NgramCount) {
	slices.SortStableFunc(out, func(a, b oracle.NgramCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
}
