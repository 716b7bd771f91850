// Package similarity builds provider search documents and scores free-text
// queries against them. The Postgres store pushes scoring into SQL
// (ts_rank + pg_trgm); this package is the equivalent in-process path used
// by the SQLite driver and by tests, so both backends agree on semantics.
package similarity

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

// MatchThreshold is the minimum score for a provider to survive the
// free-text filter, mirroring the pg_trgm similarity cutoff used in SQL.
const MatchThreshold = 0.2

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string and strips diacritics. The corpus is French, so
// "électricité" and "electricite" must hash to the same trigrams.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Tokens splits a folded string into alphanumeric tokens.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// BuildDocument assembles the provider's search document from its indexed
// fields: name, brand, kind, description, offer names and label names.
// Tokens are folded and deduplicated; rebuilding the same provider twice
// yields the same document.
func BuildDocument(p *model.Provider) string {
	var tokens []string
	tokens = append(tokens, Tokens(p.Name)...)
	tokens = append(tokens, Tokens(p.Brand)...)
	tokens = append(tokens, Tokens(string(p.Kind))...)
	tokens = append(tokens, Tokens(p.Description)...)
	for _, name := range p.OfferNames {
		tokens = append(tokens, Tokens(name)...)
	}
	for _, name := range p.LabelNames {
		tokens = append(tokens, Tokens(name)...)
	}
	return strings.Join(lo.Uniq(tokens), " ")
}

// Trigrams returns the unique trigram set of a folded string, pg_trgm
// style: each word is padded with two leading and one trailing space.
func Trigrams(s string) []string {
	var grams []string
	for _, word := range Tokens(s) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			grams = append(grams, padded[i:i+3])
		}
	}
	return lo.Uniq(grams)
}

// Similarity returns the trigram Jaccard similarity of two strings, in
// [0, 1].
func Similarity(a, b string) float64 {
	ta, tb := Trigrams(a), Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := len(lo.Intersect(ta, tb))
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// containment returns the fraction of the query's trigrams found in the
// document. Unlike Similarity it does not penalize long documents, which is
// what a ts_rank-style match over a multi-field document behaves like.
func containment(query, doc string) float64 {
	tq := Trigrams(query)
	if len(tq) == 0 {
		return 0
	}
	td := Trigrams(doc)
	return float64(len(lo.Intersect(tq, td))) / float64(len(tq))
}

// Score rates a free-text query against a provider: the best of the
// name-to-name trigram similarity and the document containment. Zero means
// no match.
func Score(p *model.Provider, query string) float64 {
	doc := p.SearchVector
	if doc == "" {
		doc = BuildDocument(p)
	}
	nameSim := Similarity(p.Name, query)
	docSim := containment(query, doc)
	if nameSim > docSim {
		return nameSim
	}
	return docSim
}
