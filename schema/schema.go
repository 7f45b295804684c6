package schema

import (
	"context"
	"sort"
	"strings"
)

// Column describes one column of a data-source table as the ambiguity
// detector sees it: a free-text description plus the business vocabulary
// users reach for when they mean this column.
type Column struct {
	Description   string   `json:"description,omitempty"`
	BusinessTerms []string `json:"business_terms,omitempty"`
}

// Table maps column names to their descriptions.
type Table struct {
	Columns map[string]Column `json:"columns"`
}

// Schema maps table names to tables.
type Schema map[string]Table

// Provider supplies the schema description for a conversation thread. The
// core consumes this contract; connection management behind it is not its
// concern.
type Provider interface {
	GetSchema(ctx context.Context, threadID string) (Schema, error)
}

// ColumnRef names a column within its table.
type ColumnRef struct {
	Table  string
	Column string
}

// String returns the table-qualified column name.
func (c ColumnRef) String() string {
	return c.Table + "." + c.Column
}

// TableNames returns the table names in sorted order so scans over the
// schema are deterministic.
func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns the column names of a table in sorted order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchText returns the lowercased concatenation of a column's name,
// description and business terms. Competing-column detection matches
// attribute phrases against this text.
func SearchText(name string, col Column) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(col.Description)
	for _, term := range col.BusinessTerms {
		b.WriteByte(' ')
		b.WriteString(term)
	}
	return strings.ToLower(b.String())
}

// Humanize turns a column identifier into a display name: underscores
// become spaces and each word is capitalized.
func Humanize(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
