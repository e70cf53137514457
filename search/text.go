package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords is the NLTK English stopword list. It includes the Boolean
// operators "and", "or" and "not", so refined queries shed them here.
var stopWords = map[string]bool{
	"i": true, "me": true, "my": true, "myself": true, "we": true, "our": true,
	"ours": true, "ourselves": true, "you": true, "you're": true, "you've": true,
	"you'll": true, "you'd": true, "your": true, "yours": true, "yourself": true,
	"yourselves": true, "he": true, "him": true, "his": true, "himself": true,
	"she": true, "she's": true, "her": true, "hers": true, "herself": true,
	"it": true, "it's": true, "its": true, "itself": true, "they": true,
	"them": true, "their": true, "theirs": true, "themselves": true, "what": true,
	"which": true, "who": true, "whom": true, "this": true, "that": true,
	"that'll": true, "these": true, "those": true, "am": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "having": true,
	"do": true, "does": true, "did": true, "doing": true, "a": true, "an": true,
	"the": true, "and": true, "but": true, "if": true, "or": true,
	"because": true, "as": true, "until": true, "while": true, "of": true,
	"at": true, "by": true, "for": true, "with": true, "about": true,
	"against": true, "between": true, "into": true, "through": true,
	"during": true, "before": true, "after": true, "above": true, "below": true,
	"to": true, "from": true, "up": true, "down": true, "in": true, "out": true,
	"on": true, "off": true, "over": true, "under": true, "again": true,
	"further": true, "then": true, "once": true, "here": true, "there": true,
	"when": true, "where": true, "why": true, "how": true, "all": true,
	"any": true, "both": true, "each": true, "few": true, "more": true,
	"most": true, "other": true, "some": true, "such": true, "no": true,
	"nor": true, "not": true, "only": true, "own": true, "same": true, "so": true,
	"than": true, "too": true, "very": true, "s": true, "t": true, "can": true,
	"will": true, "just": true, "don": true, "don't": true, "should": true,
	"should've": true, "now": true, "d": true, "ll": true, "m": true, "o": true,
	"re": true, "ve": true, "y": true, "ain": true, "aren": true, "aren't": true,
	"couldn": true, "couldn't": true, "didn": true, "didn't": true, "doesn": true,
	"doesn't": true, "hadn": true, "hadn't": true, "hasn": true, "hasn't": true,
	"haven": true, "haven't": true, "isn": true, "isn't": true, "ma": true,
	"mightn": true, "mightn't": true, "mustn": true, "mustn't": true,
	"needn": true, "needn't": true, "shan": true, "shan't": true,
	"shouldn": true, "shouldn't": true, "wasn": true, "wasn't": true,
	"weren": true, "weren't": true, "won": true, "won't": true, "wouldn": true,
	"wouldn't": true,
}

// IsStopWord reports whether word (lower-case) is an English stopword.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// trimPunct strips the punctuation a query token commonly carries:
// quotes, brackets, wildcards and sentence marks.
func trimPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// tokenize lower-cases text, splits on whitespace and trims punctuation.
func tokenize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if cleaned := trimPunct(word); cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// fold lower-cases s, removes diacritics and replaces punctuation with
// spaces, so "Cancer," and "cáncer" both fold to "cancer".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, folded)
}

// tokenSet returns the folded whitespace tokens of s.
func tokenSet(s string) map[string]bool {
	fields := strings.Fields(fold(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
