package analyzer

import (
	"bufio"
	"bytes"
	"embed"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"passroast-server/pkg/errors"

	"github.com/sirupsen/logrus"
)

//go:embed wordlists/*.txt
var embeddedWordlists embed.FS

//go:embed data/common_passwords.txt
var embeddedCommonPasswords []byte

// fallbackCommonPasswords is the minimal corpus used if the embedded
// common password list cannot be parsed.
var fallbackCommonPasswords = []string{
	"123456", "password", "12345678", "qwerty", "abc123",
}

// Lexicon holds the per-language wordlists and the common password corpus,
// indexed by word set and by word length so matching cost is bounded by the
// candidate length rather than the corpus size.
type Lexicon struct {
	languages  []string
	words      map[string]map[string]struct{}
	byLength   map[string]map[int][]string
	maxWordLen int
	common     map[string]struct{}
}

// NewLexicon loads the wordlists and the common password corpus. When
// overrideDir is non-empty its <language>.txt files replace the embedded
// wordlists; a missing or empty directory falls back to the embedded lists.
func NewLexicon(logger *logrus.Logger, overrideDir string) (*Lexicon, error) {
	lexicon := &Lexicon{
		words:    make(map[string]map[string]struct{}),
		byLength: make(map[string]map[int][]string),
		common:   make(map[string]struct{}),
	}

	loaded := false
	if overrideDir != "" {
		loaded = lexicon.loadDir(logger, overrideDir)
		if !loaded {
			logger.WithField("dir", overrideDir).Warn("No usable wordlists in override directory, falling back to embedded lists")
		}
	}

	if !loaded {
		if err := lexicon.loadEmbedded(logger); err != nil {
			return nil, errors.Wrap(err, "failed to load embedded wordlists")
		}
	}

	lexicon.loadCommonPasswords(logger)
	lexicon.buildIndexes()

	logger.WithFields(logrus.Fields{
		"languages":        lexicon.languages,
		"words":            lexicon.TotalWords(),
		"common_passwords": lexicon.CommonCount(),
	}).Info("Lexicon loaded")

	return lexicon, nil
}

func (l *Lexicon) loadEmbedded(logger *logrus.Logger) error {
	entries, err := embeddedWordlists.ReadDir("wordlists")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		data, err := embeddedWordlists.ReadFile("wordlists/" + entry.Name())
		if err != nil {
			return err
		}

		language := strings.TrimSuffix(entry.Name(), ".txt")
		l.addLanguage(logger, language, parseWordlist(bytes.NewReader(data)))
	}

	if len(l.words) == 0 {
		return errors.New("no embedded wordlists found")
	}

	return nil
}

func (l *Lexicon) loadDir(logger *logrus.Logger, dir string) bool {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(paths) == 0 {
		return false
	}

	loadedAny := false
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to open wordlist file, skipping")
			continue
		}

		words := parseWordlist(f)
		f.Close()

		if len(words) == 0 {
			logger.WithField("path", path).Warn("Wordlist file contained no words, skipping")
			continue
		}

		language := strings.TrimSuffix(filepath.Base(path), ".txt")
		l.addLanguage(logger, language, words)
		loadedAny = true
	}

	return loadedAny
}

func (l *Lexicon) addLanguage(logger *logrus.Logger, language string, words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	l.words[language] = set
	logger.WithFields(logrus.Fields{
		"language": language,
		"words":    len(set),
	}).Debug("Loaded wordlist")
}

func (l *Lexicon) loadCommonPasswords(logger *logrus.Logger) {
	for _, w := range parseWordlist(bytes.NewReader(embeddedCommonPasswords)) {
		l.common[w] = struct{}{}
	}

	if len(l.common) == 0 {
		logger.Warn("Embedded common password list is empty, using built-in fallback set")
		for _, w := range fallbackCommonPasswords {
			l.common[w] = struct{}{}
		}
	}
}

func (l *Lexicon) buildIndexes() {
	l.languages = make([]string, 0, len(l.words))
	for language := range l.words {
		l.languages = append(l.languages, language)
	}
	sort.Strings(l.languages)

	for language, set := range l.words {
		buckets := make(map[int][]string)
		for word := range set {
			length := len([]rune(word))
			buckets[length] = append(buckets[length], word)
			if length > l.maxWordLen {
				l.maxWordLen = length
			}
		}
		for _, bucket := range buckets {
			sort.Strings(bucket)
		}
		l.byLength[language] = buckets
	}
}

// parseWordlist reads a newline-delimited wordlist, lowercasing entries and
// skipping blanks and comment lines.
func parseWordlist(r io.Reader) []string {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words
}

// Languages returns the loaded language names in sorted order
func (l *Lexicon) Languages() []string {
	return l.languages
}

// HasWord reports whether the language's wordlist contains the word
func (l *Lexicon) HasWord(language, word string) bool {
	set, ok := l.words[language]
	if !ok {
		return false
	}
	_, found := set[word]
	return found
}

// WordsInLengthRange returns the language's words whose length falls in
// [min, max], ordered by length then lexicographically.
func (l *Lexicon) WordsInLengthRange(language string, min, max int) []string {
	buckets, ok := l.byLength[language]
	if !ok {
		return nil
	}

	var words []string
	for length := min; length <= max; length++ {
		words = append(words, buckets[length]...)
	}
	return words
}

// MaxWordLength returns the length of the longest word in any wordlist
func (l *Lexicon) MaxWordLength() int {
	return l.maxWordLen
}

// IsCommon reports whether the password is in the common password corpus
func (l *Lexicon) IsCommon(password string) bool {
	_, found := l.common[strings.ToLower(password)]
	return found
}

// TotalWords returns the number of words across all languages
func (l *Lexicon) TotalWords() int {
	total := 0
	for _, set := range l.words {
		total += len(set)
	}
	return total
}

// CommonCount returns the size of the common password corpus
func (l *Lexicon) CommonCount() int {
	return len(l.common)
}
