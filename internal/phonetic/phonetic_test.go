package phonetic

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngramcorrector/internal/oracle"
)

var vocab = map[string]int64{
	"there": 9000,
	"their": 8000,
	"a":     50000,
	"lot":   3000,
	"alot":  20,
}

func newIndex(t *testing.T, opts ...Option) *Index {
	t.Helper()
	ix, err := New(maps.All(vocab), opts...)
	require.NoError(t, err)
	return ix
}

func TestNewRejectsEmptyVocabulary(t *testing.T) {
	_, err := New(maps.All(map[string]int64{}))
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestHomophonesShareSound(t *testing.T) {
	assert.Equal(t, Sound("their"), Sound("there"))
	assert.NotEqual(t, Sound("their"), Sound("lot"))
}

func TestPhraseSoundKeepsUnsoundedWords(t *testing.T) {
	ix := newIndex(t)
	sig := ix.PhraseSound([]string{"their", ",", "", "lot"})
	require.Len(t, sig, 3)
	assert.Equal(t, "=,", sig[1])
}

func TestSoundsLike(t *testing.T) {
	ix := newIndex(t)
	got := ix.SoundsLike("their")
	assert.Contains(t, got, "there")
	assert.NotContains(t, got, "their")
}

func TestSoundsToWordsSeparateReadingFirst(t *testing.T) {
	ix := newIndex(t)
	readings := slices.Collect(ix.SoundsToWords(ix.PhraseSound([]string{"thare", "lot"})))
	require.NotEmpty(t, readings)
	first := readings[0]
	require.Len(t, first, 2)
	assert.Equal(t, []string{"there", "their"}, first[0][:2])
	assert.Equal(t, []string{"lot"}, first[1])
}

func TestSoundsToWordsMergedReading(t *testing.T) {
	ix := newIndex(t)
	var merged [][]string
	for r := range ix.SoundsToWords(ix.PhraseSound([]string{"a", "lot"})) {
		if len(r) == 1 {
			merged = r
		}
	}
	require.NotNil(t, merged)
	assert.Contains(t, merged[0], "alot")
}

func TestSoundsToWordsKeepsCutCodesApart(t *testing.T) {
	ix, err := New(maps.All(map[string]int64{"undoubtedly": 1500, "be": 30000, "would": 20000}))
	require.NoError(t, err)

	readings := slices.Collect(ix.SoundsToWords(ix.PhraseSound([]string{"undoubtedly", "be"})))
	require.Len(t, readings, 1)
	assert.Equal(t, [][]string{{"undoubtedly"}, {"be"}}, readings[0])

	assert.Empty(t, ix.lookup([]string{Sound("would"), Sound("be")}))
}

func TestSoundsToWordsLiteralUnits(t *testing.T) {
	ix := newIndex(t)
	readings := slices.Collect(ix.SoundsToWords([]string{"=,", Sound("lot")}))
	require.Len(t, readings, 1)
	assert.Equal(t, [][]string{{","}, {"lot"}}, readings[0])

	assert.Empty(t, slices.Collect(ix.SoundsToWords(nil)))
}

func TestWithMaxPerCode(t *testing.T) {
	ix := newIndex(t, WithMaxPerCode(1))
	assert.Len(t, ix.byCode[Sound("there")], 1)
	assert.Equal(t, "there", ix.byCode[Sound("there")][0])
}

func TestCompositions(t *testing.T) {
	assert.Equal(t, [][]int{{1}}, slices.Collect(compositions(1)))
	assert.Equal(t, [][]int{{1, 1}, {2}}, slices.Collect(compositions(2)))
	assert.Equal(t, [][]int{{1, 1, 1}, {2, 1}, {1, 2}, {3}}, slices.Collect(compositions(3)))
	assert.Len(t, slices.Collect(compositions(maxMergeUnits+1)), 1)
}

func TestSqueeze(t *testing.T) {
	assert.Equal(t, "MSPLNK", squeeze("MSSPLNK"))
	assert.Equal(t, "", squeeze(""))
}
