// Package ranking orders document lookup hits, favouring documents whose file name
// matches the query over pure content matches.
package ranking

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/documind/internal/models"
)

// File name match tiers.
const (
	ExactFilenameScore    = 100.0
	AllWordsInOrderScore  = 90.0
	AllWordsAnyOrderScore = 80.0
	SubstringMatchScore   = 60.0
)

// Candidate is a keyword hit resolved to its catalog entry.
type Candidate struct {
	Document     *models.Document
	KeywordScore float64
}

// Rank orders candidates by file name score, then by keyword score. Ties keep
// the incoming order.
func Rank(query string, candidates []Candidate) []*models.Document {
	terms := Terms(query)
	type scored struct {
		Candidate
		name float64
	}
	all := make([]scored, len(candidates))
	for i, c := range candidates {
		all[i] = scored{Candidate: c, name: filenameScore(query, terms, c.Document.FileName)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].name != all[j].name {
			return all[i].name > all[j].name
		}
		return all[i].KeywordScore > all[j].KeywordScore
	})
	out := make([]*models.Document, len(all))
	for i, s := range all {
		out[i] = s.Document
	}
	return out
}

// FilenameScore scores how well query matches filename, 0 when it does not.
func FilenameScore(query, filename string) float64 {
	return filenameScore(query, Terms(query), filename)
}

func filenameScore(query string, terms []string, filename string) float64 {
	if filename == "" || len(terms) == 0 {
		return 0
	}
	name := NormalizeFilename(filename)
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case name == q:
		return ExactFilenameScore
	case strings.ReplaceAll(name, " ", "") == strings.ReplaceAll(q, " ", ""):
		return ExactFilenameScore * 0.95
	case TermsInOrder(terms, name):
		return AllWordsInOrderScore
	}
	matched := CountMatchingTerms(terms, name)
	if matched == len(terms) {
		return AllWordsAnyOrderScore
	}
	return SubstringMatchScore * float64(matched) / float64(len(terms))
}

// Terms splits query into lowercase words, dropping punctuation.
func Terms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeFilename drops the extension, turns separators into spaces and lowercases.
func NormalizeFilename(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	filename = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(filename)
	return strings.Join(strings.Fields(strings.ToLower(filename)), " ")
}

// CountMatchingTerms counts how many terms occur in text.
func CountMatchingTerms(terms []string, text string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			count++
		}
	}
	return count
}

// TermsInOrder reports whether all terms occur in text in the given order.
func TermsInOrder(terms []string, text string) bool {
	if len(terms) == 0 {
		return false
	}
	pos := 0
	for _, term := range terms {
		i := strings.Index(text[pos:], term)
		if i < 0 {
			return false
		}
		pos += i + len(term)
	}
	return true
}
