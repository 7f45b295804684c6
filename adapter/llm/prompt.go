package llm

import (
	"fmt"
	"strings"

	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/schema"
)

func interpretPrompt(question string, history []conversation.Message, sch schema.Schema) string {
	var b strings.Builder
	b.WriteString("You translate a user's question about a database into a structured interpretation.\n")
	b.WriteString("Respond with a single JSON object with keys: tables (array of table names), ")
	b.WriteString("columns (array of column names), filters (array of plain-language conditions), ")
	b.WriteString("aggregations (array), joins (array), confidence (number between 0 and 1).\n\n")
	writeSchema(&b, sch)
	writeHistory(&b, history)
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

func domainPrompt(question string, history []conversation.Message, sch schema.Schema) string {
	var b strings.Builder
	b.WriteString("You decide whether a user's question can be answered from the database described below.\n")
	b.WriteString("Respond with a single JSON object with keys: is_relevant (boolean), ")
	b.WriteString("confidence (number between 0 and 1), reasoning (short string).\n\n")
	writeSchema(&b, sch)
	writeHistory(&b, history)
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

func writeSchema(b *strings.Builder, sch schema.Schema) {
	b.WriteString("Database schema:\n")
	for _, tableName := range sch.TableNames() {
		fmt.Fprintf(b, "- table %s:\n", tableName)
		table := sch[tableName]
		for _, colName := range table.ColumnNames() {
			col := table.Columns[colName]
			fmt.Fprintf(b, "  - %s: %s", colName, col.Description)
			if len(col.BusinessTerms) > 0 {
				fmt.Fprintf(b, " (also known as: %s)", strings.Join(col.BusinessTerms, ", "))
			}
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
}

func writeHistory(b *strings.Builder, history []conversation.Message) {
	if len(history) == 0 {
		return
	}
	b.WriteString("Recent conversation:\n")
	for _, msg := range history {
		fmt.Fprintf(b, "%s: %s\n", msg.Role, msg.Content)
	}
	b.WriteByte('\n')
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
