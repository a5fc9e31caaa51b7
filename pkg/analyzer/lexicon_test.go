package analyzer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lexicon, err := NewLexicon(testLogger(), "")
	require.NoError(t, err)
	return lexicon
}

func TestLexiconEmbedded(t *testing.T) {
	lexicon := testLexicon(t)

	assert.Equal(t, []string{"english", "french", "spanish", "swahili"}, lexicon.Languages())
	assert.True(t, lexicon.HasWord("english", "password"))
	assert.True(t, lexicon.HasWord("swahili", "jambo"))
	assert.False(t, lexicon.HasWord("english", "jambo"))
	assert.False(t, lexicon.HasWord("klingon", "qapla"))
	assert.Greater(t, lexicon.TotalWords(), 100)
	assert.GreaterOrEqual(t, lexicon.CommonCount(), 40)
	assert.Equal(t, 10, lexicon.MaxWordLength())
}

func TestLexiconIsCommon(t *testing.T) {
	lexicon := testLexicon(t)

	assert.True(t, lexicon.IsCommon("123456"))
	assert.True(t, lexicon.IsCommon("password"))
	assert.True(t, lexicon.IsCommon("PASSWORD"))
	assert.False(t, lexicon.IsCommon("xK9$mQ2!vB7&"))
}

func TestLexiconWordsInLengthRange(t *testing.T) {
	lexicon := testLexicon(t)

	words := lexicon.WordsInLengthRange("english", 8, 8)
	assert.Contains(t, words, "password")
	for _, w := range words {
		assert.Len(t, []rune(w), 8)
	}

	assert.Empty(t, lexicon.WordsInLengthRange("english", 20, 30))
	assert.Empty(t, lexicon.WordsInLengthRange("klingon", 3, 10))
}

func TestLexiconOverrideDir(t *testing.T) {
	dir := t.TempDir()
	content := "QAPLA\n\n# comment line\nghuy\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "klingon.txt"), []byte(content), 0644))

	lexicon, err := NewLexicon(testLogger(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"klingon"}, lexicon.Languages())
	assert.True(t, lexicon.HasWord("klingon", "qapla"), "entries are lowercased")
	assert.False(t, lexicon.HasWord("klingon", "# comment line"))
	assert.False(t, lexicon.HasWord("english", "password"))
	assert.True(t, lexicon.IsCommon("123456"), "common corpus stays embedded")
}

func TestLexiconOverrideDirMissing(t *testing.T) {
	lexicon, err := NewLexicon(testLogger(), filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)

	assert.True(t, lexicon.HasWord("english", "password"), "falls back to embedded lists")
}
