package categorize

import (
	"strings"
)

// maxKeywords bounds how many description tokens feed the keyword strategy.
const maxKeywords = 5

// stopWords are tokens too common to carry category signal.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "had": {},
	"has": {}, "have": {}, "he": {}, "her": {}, "his": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "she": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

// ExtractKeywords extracts up to maxKeywords keywords from a transaction
// description: lowercase, strip non-alphanumeric characters, tokenize on
// whitespace, then discard tokens of length <= 2, stop words, and
// duplicates, keeping the first survivors in order.
func ExtractKeywords(description string) []string {
	var sb strings.Builder
	sb.Grow(len(description))
	for _, r := range strings.ToLower(description) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)
	for _, token := range strings.Fields(sb.String()) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}

// keywordOverlap computes the intersection-over-current ratio between the
// current keyword set and a historical one.
func keywordOverlap(current, historical []string) float64 {
	if len(current) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(historical))
	for _, k := range historical {
		set[k] = struct{}{}
	}

	matched := 0
	for _, k := range current {
		if _, ok := set[k]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(current))
}
