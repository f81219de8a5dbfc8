package ngramindex

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"

	"ngramcorrector/internal/oracle"
)

const (
	wordMagic  = "NGW1"
	ngramMagic = "NG3B"
	headerSize = 8
	recordSize = 16
)

var (
	// ErrBadMagic means a file is not a table of the expected kind.
	ErrBadMagic = errors.New("bad table signature")
	// ErrCorrupt means a table's contents do not match its header.
	ErrCorrupt = errors.New("corrupt table")
)

// record is one packed n-gram: word ids (0 = absent) and a count.
type record struct {
	id   [oracle.MaxOrder]uint32
	freq uint32
}

func (r record) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], r.id[0])
	binary.LittleEndian.PutUint32(b[4:], r.id[1])
	binary.LittleEndian.PutUint32(b[8:], r.id[2])
	binary.LittleEndian.PutUint32(b[12:], r.freq)
}

func (r record) order() int {
	n := 0
	for n < len(r.id) && r.id[n] != 0 {
		n++
	}
	return n
}

func compareIDs(a, b [oracle.MaxOrder]uint32) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// wordPadding is the NUL terminator plus padding that keeps each word
// record 4-byte aligned.
func wordPadding(n int) int {
	return 4 - n%4
}

// Index is a frequency oracle over memory-mapped tables. The mapped n-gram
// table is never copied onto the heap; only the word-to-id map is.
type Index struct {
	wordMap  mmap.MMap
	ngramMap mmap.MMap
	recs     []byte
	n        int
	vocab    []string
	ids      map[string]uint32
}

var _ oracle.Frequency = (*Index)(nil)

// Open maps the word and n-gram tables written by Builder.Write.
func Open(wordPath, ngramPath string) (*Index, error) {
	wm, err := mapFile(wordPath)
	if err != nil {
		return nil, err
	}
	ix := &Index{wordMap: wm}
	if err := ix.loadWords(); err != nil {
		_ = wm.Unmap()
		return nil, fmt.Errorf("%s: %w", wordPath, err)
	}
	nm, err := mapFile(ngramPath)
	if err != nil {
		_ = wm.Unmap()
		return nil, err
	}
	ix.ngramMap = nm
	if err := ix.loadNgrams(); err != nil {
		_ = ix.Close()
		return nil, fmt.Errorf("%s: %w", ngramPath, err)
	}
	return ix, nil
}

func mapFile(path string) (mmap.MMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrUnavailable, err)
	}
	defer f.Close()
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", oracle.ErrUnavailable, path, err)
	}
	return m, nil
}

func (ix *Index) loadWords() error {
	m := ix.wordMap
	if len(m) < headerSize || string(m[:4]) != wordMagic {
		return ErrBadMagic
	}
	count := int(binary.LittleEndian.Uint32(m[4:8]))
	ix.vocab = make([]string, 0, count)
	ix.ids = make(map[string]uint32, count)
	pos := headerSize
	for i := 0; i < count; i++ {
		if pos+4 > len(m) {
			return fmt.Errorf("%w: word %d truncated", ErrCorrupt, i)
		}
		n := int(binary.LittleEndian.Uint32(m[pos:]))
		start := pos + 4
		end := start + n
		if end > len(m) {
			return fmt.Errorf("%w: word %d overruns table", ErrCorrupt, i)
		}
		w := string(m[start:end])
		ix.vocab = append(ix.vocab, w)
		ix.ids[w] = uint32(i + 1)
		pos = end + wordPadding(n)
	}
	return nil
}

func (ix *Index) loadNgrams() error {
	m := ix.ngramMap
	if len(m) < headerSize || string(m[:4]) != ngramMagic {
		return ErrBadMagic
	}
	n := int(binary.LittleEndian.Uint32(m[4:8]))
	body := m[headerSize:]
	if len(body) != n*recordSize {
		return fmt.Errorf("%w: header says %d records, body holds %d bytes", ErrCorrupt, n, len(body))
	}
	ix.recs = body
	ix.n = n
	return nil
}

// Close unmaps both tables.
func (ix *Index) Close() error {
	var errs []error
	if ix.ngramMap != nil {
		errs = append(errs, ix.ngramMap.Unmap())
		ix.ngramMap = nil
	}
	if ix.wordMap != nil {
		errs = append(errs, ix.wordMap.Unmap())
		ix.wordMap = nil
	}
	ix.recs = nil
	ix.n = 0
	return errors.Join(errs...)
}

func (ix *Index) record(i int) record {
	b := ix.recs[i*recordSize:]
	return record{
		id: [oracle.MaxOrder]uint32{
			binary.LittleEndian.Uint32(b[0:]),
			binary.LittleEndian.Uint32(b[4:]),
			binary.LittleEndian.Uint32(b[8:]),
		},
		freq: binary.LittleEndian.Uint32(b[12:]),
	}
}

// key resolves words to ids; ok is false when a word is not in the table.
func (ix *Index) key(words []string) (k [oracle.MaxOrder]uint32, ok bool) {
	ok = true
	for i, w := range words {
		id, found := ix.ids[w]
		if !found {
			ok = false
		}
		k[i] = id
	}
	return k, ok
}

func (ix *Index) Freq(words ...string) int64 {
	if len(words) == 0 || len(words) > oracle.MaxOrder {
		return 0
	}
	k, ok := ix.key(words)
	if !ok {
		return 0
	}
	i := sort.Search(ix.n, func(i int) bool {
		return compareIDs(ix.record(i).id, k) >= 0
	})
	if i < ix.n {
		if r := ix.record(i); r.id == k {
			return int64(r.freq)
		}
	}
	return 0
}

func (ix *Index) Freqs(word string) int64 { return ix.Freq(word) }

// NgramLike scans the whole table for records of the same order that agree
// with words on all positions but one.
func (ix *Index) NgramLike(words []string) []oracle.NgramCount {
	n := len(words)
	if n < 2 || n > oracle.MaxOrder {
		return nil
	}
	k, _ := ix.key(words)
	var out []oracle.NgramCount
	for i := 0; i < ix.n; i++ {
		r := ix.record(i)
		if r.order() != n {
			continue
		}
		same := 0
		for j := 0; j < n; j++ {
			if r.id[j] == k[j] {
				same++
			}
		}
		if same != n-1 {
			continue
		}
		ws := make([]string, n)
		for j := 0; j < n; j++ {
			ws[j] = ix.word(r.id[j])
		}
		out = append(out, oracle.NgramCount{Words: ws, Count: int64(r.freq)})
	}
	sortLike(out)
	return out
}

func (ix *Index) word(id uint32) string {
	if id == 0 || int(id) > len(ix.vocab) {
		return ""
	}
	return ix.vocab[id-1]
}

// Vocabulary yields every word that has a single-word count.
func (ix *Index) Vocabulary() iter.Seq2[string, int64] {
	return func(yield func(string, int64) bool) {
		for _, w := range ix.vocab {
			f := ix.Freqs(w)
			if f == 0 {
				continue
			}
			if !yield(w, f) {
				return
			}
		}
	}
}
