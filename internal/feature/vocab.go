package feature

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Term is one vocabulary entry: its column in the feature vector and its
// inverse-document-frequency weight from the training corpus.
type Term struct {
	Index int     `json:"index"`
	IDF   float64 `json:"idf"`
}

// Vocabulary is the frozen n-gram table fitted on training merchant text.
// It is an artifact of training: encoding at inference must use the exact
// table that produced the training vectors.
type Vocabulary struct {
	Terms map[string]Term `json:"terms"`
}

// Size returns the number of text features.
func (v *Vocabulary) Size() int {
	return len(v.Terms)
}

// FitVocabulary builds a unigram+bigram vocabulary over case-folded merchant
// texts with smoothed IDF weights. Term indices are assigned in sorted term
// order so fitting the same corpus twice yields an identical table.
func FitVocabulary(merchantTexts []string) *Vocabulary {
	docFreq := make(map[string]int)
	for _, text := range merchantTexts {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(text) {
			seen[tok] = struct{}{}
		}
		for tok := range seen {
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for tok := range docFreq {
		terms = append(terms, tok)
	}
	sort.Strings(terms)

	n := float64(len(merchantTexts))
	vocab := &Vocabulary{Terms: make(map[string]Term, len(terms))}
	for i, tok := range terms {
		// Smoothed IDF: every term behaves as if seen in one extra
		// document, keeping weights finite on tiny corpora.
		idf := math.Log((1+n)/(1+float64(docFreq[tok]))) + 1
		vocab.Terms[tok] = Term{Index: i, IDF: idf}
	}
	return vocab
}

// Tokenize splits merchant text into case-folded unigrams and adjacent
// bigrams. Diacritics are stripped so "Café" and "Cafe" share a token.
func Tokenize(text string) []string {
	folded := foldText(text)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}

	tokens := make([]string, 0, 2*len(words)-1)
	tokens = append(tokens, words...)
	for i := 0; i+1 < len(words); i++ {
		tokens = append(tokens, words[i]+" "+words[i+1])
	}
	return tokens
}

// foldText lowercases and strips combining marks.
func foldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, text)
	if err != nil {
		normalized = text
	}
	return strings.ToLower(normalized)
}
