package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counts = "the\t100000\nrefrigerator\t120\nis\t40000\ncold\t900\nthe refrigerator\t60\nrefrigerator is cold\t12\n"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeStderr(t, stdin, args...)
	return out, err
}

func executeStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBuildQueryCorrect(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "word.bin")
	ngrams := filepath.Join(dir, "ngram3.bin")
	src := filepath.Join(dir, "counts.tsv")
	require.NoError(t, os.WriteFile(src, []byte(counts), 0o644))

	out, err := execute(t, "", "build", "--words", words, "--ngrams", ngrams, src)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 6 n-grams")

	out, err = execute(t, "", "query", "--words", words, "--ngrams", ngrams, "The", "refrigerator")
	require.NoError(t, err)
	assert.Equal(t, "the refrigerator\t60\n", out)

	out, err = execute(t, "", "query", "--words", words, "--ngrams", ngrams, "no", "such")
	require.NoError(t, err)
	assert.Equal(t, "no such\t0\n", out)

	out, errOut, err := executeStderr(t, "The refridgerator is cold", "correct", "--words", words, "--ngrams", ngrams)
	require.NoError(t, err)
	assert.Equal(t, "The refrigerator is cold", out)
	assert.Contains(t, errOut, "Replacement")
	assert.Contains(t, errOut, "refridgerator")
	assert.Contains(t, errOut, "unknown")

	out, errOut, err = executeStderr(t, "the refrigerator is cold", "correct", "--words", words, "--ngrams", ngrams)
	require.NoError(t, err)
	assert.Equal(t, "the refrigerator is cold", out)
	assert.Empty(t, errOut)
}

func TestSuggestAndLike(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "word.bin")
	ngrams := filepath.Join(dir, "ngram3.bin")
	_, err := execute(t, counts, "build", "--words", words, "--ngrams", ngrams)
	require.NoError(t, err)

	out, err := execute(t, "refridgerator", "suggest", "--words", words, "--ngrams", ngrams)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "Replacement")
	assert.Contains(t, lines[2], "unknown")
	assert.Contains(t, lines[2], "refrigerator")

	out, err = execute(t, "", "query", "--like", "--words", words, "--ngrams", ngrams, "the", "cold")
	require.NoError(t, err)
	assert.Contains(t, out, "the cold\t0\n")
	assert.Contains(t, out, "the refrigerator")
}

func TestBuildFromStdin(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "word.bin")
	ngrams := filepath.Join(dir, "ngram3.bin")

	out, err := execute(t, counts, "build", "--words", words, "--ngrams", ngrams)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 6 n-grams")
	assert.FileExists(t, words)
	assert.FileExists(t, ngrams)
}

func TestBuildMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "build", "--words", filepath.Join(dir, "w"), "--ngrams", filepath.Join(dir, "n"), filepath.Join(dir, "absent.tsv"))
	assert.Error(t, err)
}

func TestQueryArgs(t *testing.T) {
	_, err := execute(t, "", "query")
	assert.Error(t, err)
	_, err = execute(t, "", "query", "a", "b", "c", "d")
	assert.Error(t, err)
}
