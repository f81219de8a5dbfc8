package ngramindex

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Load reads lines of the form "w1 w2 w3<TAB>count" and adds them to b.
// Blank lines are skipped; malformed lines are errors. It returns the number
// of lines added.
func (b *Builder) Load(r io.Reader) (int, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	added, lineNo := 0, 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		words, count, ok := strings.Cut(line, "\t")
		if !ok {
			return added, fmt.Errorf("line %d: missing tab before count", lineNo)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(count), 10, 64)
		if err != nil {
			if fv, err2 := strconv.ParseFloat(strings.TrimSpace(count), 64); err2 == nil {
				n = int64(fv)
			} else {
				return added, fmt.Errorf("line %d: bad count %q: %w", lineNo, count, err)
			}
		}
		b.Add(n, strings.Fields(words)...)
		added++
	}
	if err := s.Err(); err != nil {
		return added, fmt.Errorf("read counts: %w", err)
	}
	return added, nil
}
