package search

import (
	"slices"
	"strings"

	"github.com/poiesic/litscreen/core"
)

// DefaultLimit is the number of results a ranking keeps.
const DefaultLimit = 20

// Field weights for lexical scoring.
const (
	TitleSubstringWeight  = 5
	TitleTokenWeight      = 3
	ThemeWeight           = 3
	PaperTypeWeight       = 2
	SourceWeight          = 1
	CountryOrgWeight      = 1
	minExactTokenTermSize = 3
)

// Terms is the set of search terms extracted from a query.
type Terms struct {
	// Words are the surviving terms in query order, de-duplicated.
	Words []string

	// Fallback is true when every token was a stopword and Words holds the
	// whole query as a single substring term.
	Fallback bool
}

// Empty reports whether there is nothing to search for.
func (t Terms) Empty() bool {
	return len(t.Words) == 0
}

// ExtractTerms lower-cases and tokenizes query and drops stopwords.
// When nothing survives, the trimmed query itself becomes the only term.
func ExtractTerms(query string) Terms {
	var words []string
	seen := make(map[string]bool)
	for _, token := range tokenize(query) {
		if IsStopWord(token) || seen[token] {
			continue
		}
		seen[token] = true
		words = append(words, token)
	}
	if len(words) > 0 {
		return Terms{Words: words}
	}

	whole := strings.ToLower(strings.TrimSpace(query))
	if whole == "" {
		return Terms{}
	}
	return Terms{Words: []string{whole}, Fallback: true}
}

// Score computes the weighted lexical relevance of doc for terms.
//
// Per term: title substring +5, otherwise a folded exact title token +3
// (terms longer than two characters, not in fallback mode); theme +3;
// paper type +2; source +1; country/organisation +1. Matching is
// case-insensitive.
func Score(doc *core.DocumentRecord, terms Terms) int {
	if doc == nil || terms.Empty() {
		return 0
	}

	title := strings.ToLower(doc.Title)
	theme := strings.ToLower(doc.Theme)
	paperType := strings.ToLower(doc.PaperType)
	source := strings.ToLower(doc.Source)
	countryOrg := strings.ToLower(doc.CountryOrganisation)

	var titleTokens map[string]bool
	score := 0
	for _, term := range terms.Words {
		switch {
		case strings.Contains(title, term):
			score += TitleSubstringWeight
		case !terms.Fallback && len([]rune(term)) >= minExactTokenTermSize:
			if titleTokens == nil {
				titleTokens = tokenSet(doc.Title)
			}
			if titleTokens[strings.TrimSpace(fold(term))] {
				score += TitleTokenWeight
			}
		}
		if strings.Contains(theme, term) {
			score += ThemeWeight
		}
		if strings.Contains(paperType, term) {
			score += PaperTypeWeight
		}
		if strings.Contains(source, term) {
			score += SourceWeight
		}
		if strings.Contains(countryOrg, term) {
			score += CountryOrgWeight
		}
	}
	return score
}

// RankLexical scores docs against terms, keeps matches, and returns them in
// descending score order. Equal scores keep their input order. limit <= 0
// means DefaultLimit.
func RankLexical(docs []*core.DocumentRecord, terms Terms, limit int) []*core.SearchResult {
	return truncate(scoreLexical(docs, terms), limit)
}

func scoreLexical(docs []*core.DocumentRecord, terms Terms) []*core.SearchResult {
	results := make([]*core.SearchResult, 0)
	for _, doc := range docs {
		if score := Score(doc, terms); score > 0 {
			results = append(results, &core.SearchResult{Document: doc, Score: float64(score)})
		}
	}
	slices.SortStableFunc(results, byScoreDesc)
	return results
}

func truncate(results []*core.SearchResult, limit int) []*core.SearchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

func byScoreDesc(a, b *core.SearchResult) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}
