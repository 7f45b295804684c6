package resolver

import (
	"regexp"
	"strings"
)

// AttributeExtractor extracts candidate attribute phrases from a question:
// the fragments that name a property being asked about ("risk score",
// "transaction amount"), not the subject entities. Implementations must
// return de-duplicated lowercase phrases in first-occurrence order; the
// competing-column scan depends on that order being stable within a call.
type AttributeExtractor interface {
	Extract(question string) ([]string, error)
}

// attributeMarkers is the fixed vocabulary of words that flag a phrase as
// naming an attribute rather than an entity.
var attributeMarkers = map[string]bool{
	"score":    true,
	"amount":   true,
	"date":     true,
	"name":     true,
	"id":       true,
	"category": true,
	"type":     true,
	"flag":     true,
}

// stopWords are question scaffolding; a run of words is broken on them and
// they never appear inside an extracted phrase.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "to": true,
	"in": true, "on": true, "at": true, "by": true, "with": true, "and": true,
	"or": true, "not": true, "no": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "which": true,
	"what": true, "who": true, "whose": true, "where": true, "when": true,
	"why": true, "how": true, "all": true, "any": true, "each": true,
	"per": true, "than": true, "more": true, "less": true, "most": true,
	"least": true, "above": true, "below": true, "over": true, "under": true,
	"between": true, "from": true, "that": true, "this": true, "these": true,
	"those": true, "show": true, "list": true, "give": true, "get": true,
	"find": true, "me": true, "i": true, "you": true, "we": true, "they": true,
	"it": true, "my": true, "our": true, "their": true, "please": true,
	"can": true, "could": true, "would": true, "should": true, "will": true,
}

func containsMarker(words []string) bool {
	for _, w := range words {
		if attributeMarkers[w] {
			return true
		}
	}
	return false
}

func allStopWords(words []string) bool {
	for _, w := range words {
		if !stopWords[w] {
			return false
		}
	}
	return true
}

// RegexExtractor is the dependency-free fallback extractor. It lowercases
// the question, walks the runs of letter-only words (runs break on
// non-letter characters and on stop words) and keeps each run that
// mentions an attribute marker.
type RegexExtractor struct{}

var wordRe = regexp.MustCompile(`[a-z]+`)

// Extract implements AttributeExtractor.
func (RegexExtractor) Extract(question string) ([]string, error) {
	lower := strings.ToLower(question)
	locs := wordRe.FindAllStringIndex(lower, -1)

	var phrases []string
	seen := make(map[string]bool)
	var run []string
	prevEnd := -1

	flush := func() {
		if len(run) == 0 {
			return
		}
		if containsMarker(run) && !allStopWords(run) {
			phrase := strings.Join(run, " ")
			if !seen[phrase] {
				seen[phrase] = true
				phrases = append(phrases, phrase)
			}
		}
		run = nil
	}

	for _, loc := range locs {
		word := lower[loc[0]:loc[1]]

		// A run only continues across plain spaces; digits and
		// punctuation between words end it.
		if prevEnd >= 0 && strings.Trim(lower[prevEnd:loc[0]], " ") != "" {
			flush()
		}
		prevEnd = loc[1]

		if stopWords[word] {
			flush()
			continue
		}
		run = append(run, word)
	}
	flush()

	return phrases, nil
}
