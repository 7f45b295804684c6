package resolver

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// ProseExtractor extracts attribute phrases with part-of-speech tagging
// from jdkato/prose: consecutive adjective/noun tokens form a candidate
// noun chunk. Heavier than RegexExtractor but better at trimming verbs and
// question scaffolding; choose it at construction time where the extra
// model footprint is acceptable.
type ProseExtractor struct{}

var _ AttributeExtractor = ProseExtractor{}

// Extract implements AttributeExtractor.
func (ProseExtractor) Extract(question string) ([]string, error) {
	doc, err := prose.NewDocument(
		strings.ToLower(question),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, err
	}

	var phrases []string
	seen := make(map[string]bool)
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		if (len(run) > 1 || containsMarker(run)) && !allStopWords(run) {
			phrase := strings.Join(run, " ")
			if !seen[phrase] {
				seen[phrase] = true
				phrases = append(phrases, phrase)
			}
		}
		run = nil
	}

	for _, tok := range doc.Tokens() {
		tag := tok.Tag
		word := strings.ToLower(tok.Text)

		isChunkWord := strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
		if !isChunkWord || stopWords[word] {
			flush()
			continue
		}
		run = append(run, word)
	}
	flush()

	return phrases, nil
}
