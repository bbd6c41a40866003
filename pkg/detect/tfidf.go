package detect

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
)

// ErrNoVocabularyOverlap is returned when a text shares no terms with the
// corpus the vectorizer was fit on. Callers treat it as zero similarity,
// not a failure.
var ErrNoVocabularyOverlap = errors.New("text shares no terms with the fitted corpus")

// stopwords dropped during tokenization. A subset of the usual English list;
// the corpus is short templated sentences, so a small table is enough.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "she": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"there": {}, "they": {}, "this": {}, "to": {}, "was": {}, "we": {},
	"were": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Vectorizer is a term-frequency / inverse-document-frequency vectorizer
// fit once against a fixed corpus. After fitting it is immutable and safe
// for concurrent use.
type Vectorizer struct {
	vocab map[string]int
	idf   []float32
}

// FitVectorizer builds a vectorizer from the corpus. Smoothed IDF:
// idf(t) = ln((1+n)/(1+df(t))) + 1.
func FitVectorizer(corpus []string) *Vectorizer {
	vocab := make(map[string]int)
	df := make([]int, 0, 64)

	for _, doc := range corpus {
		seen := make(map[int]struct{})
		for _, tok := range tokenize(doc) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
				df = append(df, 0)
			}
			if _, dup := seen[idx]; !dup {
				df[idx]++
				seen[idx] = struct{}{}
			}
		}
	}

	n := float64(len(corpus))
	idf := make([]float32, len(df))
	for i, d := range df {
		idf[i] = float32(math.Log((1+n)/(1+float64(d))) + 1)
	}

	return &Vectorizer{vocab: vocab, idf: idf}
}

// Vectorize returns the L2-normalized TF-IDF vector for text. Terms outside
// the fitted vocabulary are ignored. Returns ErrNoVocabularyOverlap when the
// resulting vector is all zeros.
func (v *Vectorizer) Vectorize(text string) ([]float32, error) {
	vec := make([]float32, len(v.idf))
	hit := false
	for _, tok := range tokenize(text) {
		if idx, ok := v.vocab[tok]; ok {
			vec[idx] += v.idf[idx]
			hit = true
		}
	}
	if !hit {
		return nil, ErrNoVocabularyOverlap
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Dimension returns the fitted vocabulary size.
func (v *Vectorizer) Dimension() int { return len(v.vocab) }

// EmbeddingFunc adapts the vectorizer for use as a chromem embedding source.
func (v *Vectorizer) EmbeddingFunc() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		return v.Vectorize(text)
	}
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character tokens and stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
