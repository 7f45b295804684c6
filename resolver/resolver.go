package resolver

import (
	"fmt"
	"strings"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/log"
	"github.com/smallnest/queryflow/schema"
)

const (
	// trustThreshold is the confidence at or above which the upstream
	// interpreter's explicit column choice is taken as authoritative and
	// ambiguity detection is skipped. That trust is deliberate: a
	// high-confidence interpretation that happened to resolve a contested
	// attribute arbitrarily will not be second-guessed here.
	trustThreshold = 0.90

	// relationshipThreshold is the lower auto-proceed bar for
	// relationship-intent questions.
	relationshipThreshold = 0.85
)

// relationshipPhrases mark questions about a known association between
// entities rather than a contested attribute.
var relationshipPhrases = []string{
	"linked to",
	"related to",
	"associated with",
	"connected to",
	"relationship between",
	"correlation between",
	"connection between",
	"how are",
	"linked to certain",
}

// Resolution is the decision for one turn. Either AutoProceed is true, or
// Request carries the pause payload to return to the caller.
type Resolution struct {
	AutoProceed bool
	Request     *conversation.PendingRequest
}

// Resolver decides, for one turn, whether the pipeline may proceed
// unattended or must pause for human input.
type Resolver struct {
	extractor AttributeExtractor
	logger    log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtractor selects the attribute extractor. The default is the regex
// fallback; deployments with the linguistic backend available pass
// ProseExtractor here.
func WithExtractor(e AttributeExtractor) Option {
	return func(r *Resolver) { r.extractor = e }
}

// WithLogger sets the logger used by the fail-open path.
func WithLogger(l log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		extractor: RegexExtractor{},
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the decision engine. Any internal failure, error or panic
// alike, resolves to auto-proceed: the engine favors availability over
// strict correctness and must never leave the user blocked on its own
// bugs. The failure is logged and goes no further.
func (r *Resolver) Resolve(question string, interp conversation.Interpretation, sch schema.Schema) (res Resolution) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("ambiguity resolution panicked, failing open: %v", p)
			res = Resolution{AutoProceed: true}
		}
	}()

	resolution, err := r.resolve(question, interp, sch)
	if err != nil {
		r.logger.Warn("ambiguity resolution failed, failing open: %v", err)
		return Resolution{AutoProceed: true}
	}
	return resolution
}

func (r *Resolver) resolve(question string, interp conversation.Interpretation, sch schema.Schema) (Resolution, error) {
	trusted := interp.Confidence >= trustThreshold && len(interp.Columns) > 0
	relationship := isRelationshipQuestion(question)

	// Detection is skipped when the interpreter's explicit column choice
	// is trusted, and for relationship questions, which reference a known
	// association rather than a contested attribute.
	if !trusted && !relationship {
		attributes, err := r.extractor.Extract(question)
		if err != nil {
			return Resolution{}, err
		}

		if amb := findCompetingColumns(attributes, sch); amb != nil {
			return Resolution{Request: amb.request()}, nil
		}
	}

	complex := isComplex(interp)

	if interp.Confidence >= trustThreshold && !complex {
		return Resolution{AutoProceed: true}, nil
	}
	if relationship && interp.Confidence >= relationshipThreshold {
		return Resolution{AutoProceed: true}, nil
	}

	return Resolution{Request: confirmationRequest(interp)}, nil
}

// isComplex scores the interpretation on three signals: multiple tables,
// aggregations, joins. Two or more make it complex; a single table with
// only simple filters is never complex regardless of filter count.
func isComplex(interp conversation.Interpretation) bool {
	multiTable := len(interp.Tables) > 1
	hasAggregation := len(interp.Aggregations) > 0
	hasJoin := len(interp.Joins) > 0

	if !multiTable && !hasAggregation && !hasJoin {
		return false
	}

	features := 0
	for _, f := range []bool{multiTable, hasAggregation, hasJoin} {
		if f {
			features++
		}
	}
	return features >= 2
}

func isRelationshipQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, phrase := range relationshipPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ambiguity records one attribute phrase that matched more than one column.
type ambiguity struct {
	attribute string
	columns   []matchedColumn
}

type matchedColumn struct {
	ref  schema.ColumnRef
	meta schema.Column
}

// findCompetingColumns scans every column of every table for each extracted
// attribute, in extraction order. The first attribute matching more than
// one column wins; the scan over the schema itself is in sorted table and
// column order so the option list is deterministic.
func findCompetingColumns(attributes []string, sch schema.Schema) *ambiguity {
	for _, attr := range attributes {
		needle := strings.ReplaceAll(attr, "_", " ")

		var matches []matchedColumn
		for _, tableName := range sch.TableNames() {
			table := sch[tableName]
			for _, colName := range table.ColumnNames() {
				meta := table.Columns[colName]
				if strings.Contains(schema.SearchText(colName, meta), needle) {
					matches = append(matches, matchedColumn{
						ref:  schema.ColumnRef{Table: tableName, Column: colName},
						meta: meta,
					})
				}
			}
		}

		if len(matches) > 1 {
			return &ambiguity{attribute: attr, columns: matches}
		}
	}
	return nil
}

func (a *ambiguity) request() *conversation.PendingRequest {
	options := make([]conversation.Option, 0, len(a.columns))
	for _, m := range a.columns {
		options = append(options, conversation.Option{
			ID:          m.ref.Column,
			DisplayName: schema.Humanize(m.ref.Column),
			Description: m.meta.Description,
		})
	}

	return &conversation.PendingRequest{
		Source:  "ambiguity_resolver",
		Kind:    conversation.ChoiceSelection,
		Prompt:  fmt.Sprintf("The term %q could refer to more than one field. Which one did you mean?", a.attribute),
		Options: options,
	}
}

// confirmationRequest builds a one-sentence plain-language summary of the
// proposed query with confirm/deny options.
func confirmationRequest(interp conversation.Interpretation) *conversation.PendingRequest {
	columns := "all relevant information"
	if len(interp.Columns) > 0 {
		columns = strings.Join(interp.Columns, ", ")
	}

	summary := fmt.Sprintf("retrieve %s from %s", columns, strings.Join(interp.Tables, ", "))
	if len(interp.Filters) > 0 {
		summary += " where " + strings.Join(interp.Filters, " and ")
	}

	return &conversation.PendingRequest{
		Source: "ambiguity_resolver",
		Kind:   conversation.Confirmation,
		Prompt: fmt.Sprintf("I am going to %s. Is that what you meant?", summary),
		Options: []conversation.Option{
			{ID: "confirm", DisplayName: "Confirm"},
			{ID: "deny", DisplayName: "Deny"},
		},
	}
}
