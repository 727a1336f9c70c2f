// Package vectorizer implements the lexical TF-IDF model used to embed
// graph nodes and queries into a shared vector space.
//
// A Vectorizer is fitted once per ingestion over the node corpus and then
// frozen: queries are transformed with the stored vocabulary and IDF
// weights, never refitted. All outputs are deterministic for a given
// corpus (vocabulary is selected and ordered without map iteration).
package vectorizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// MaxFeatures caps the vocabulary size. Terms are kept by descending
// corpus frequency, ties broken alphabetically.
const MaxFeatures = 512

var tokenRe = regexp.MustCompile(`[a-z0-9][a-z0-9]+`)

// stopWords is a compact English stop list. Tokens in this set never
// enter the vocabulary.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a about above after again against all am an and any are as at be because been " +
			"before being below between both but by can did do does doing down during each " +
			"few for from further had has have having he her here hers herself him himself " +
			"his how i if in into is it its itself just me more most my myself no nor not " +
			"now of off on once only or other our ours ourselves out over own same she " +
			"should so some such than that the their theirs them themselves then there " +
			"these they this those through to too under until up very was we were what " +
			"when where which while who whom why will with you your yours yourself " +
			"yourselves") {
		stopWords[w] = struct{}{}
	}
}

// Vectorizer holds a fitted vocabulary and IDF weights.
type Vectorizer struct {
	vocab map[string]int // term -> feature index
	idf   []float64      // per feature index
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Fit builds a vectorizer from the corpus and returns it together with
// one L2-normalized TF-IDF vector per input document, in input order.
func Fit(corpus []string) (*Vectorizer, [][]float64) {
	docs := make([]map[string]int, len(corpus))
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, text := range corpus {
		counts := make(map[string]int)
		for _, tok := range tokenize(text) {
			if _, stop := stopWords[tok]; stop {
				continue
			}
			counts[tok]++
		}
		docs[i] = counts
		for term, c := range counts {
			termFreq[term] += c
			docFreq[term]++
		}
	}

	// Select up to MaxFeatures terms by corpus frequency, alphabetical on ties.
	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > MaxFeatures {
		terms = terms[:MaxFeatures]
	}
	// Feature indices are assigned alphabetically so the layout does not
	// depend on frequency ordering.
	sort.Strings(terms)

	v := &Vectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocab[term] = i
		// Smoothed IDF: acts as if one extra document contained every term.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([][]float64, len(corpus))
	for i, counts := range docs {
		vectors[i] = v.weigh(counts)
	}
	return v, vectors
}

// Transform embeds text into the fitted vector space. Terms outside the
// vocabulary contribute nothing.
func (v *Vectorizer) Transform(text string) []float64 {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	return v.weigh(counts)
}

// Features returns the vocabulary size.
func (v *Vectorizer) Features() int {
	return len(v.idf)
}

func (v *Vectorizer) weigh(counts map[string]int) []float64 {
	vec := make([]float64, len(v.idf))
	for term, c := range counts {
		if idx, ok := v.vocab[term]; ok {
			vec[idx] = float64(c) * v.idf[idx]
		}
	}
	normalize(vec)
	return vec
}

func normalize(vec []float64) {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// or zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
