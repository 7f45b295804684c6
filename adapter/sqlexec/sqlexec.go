package sqlexec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/queryflow/conversation"
)

// Executor runs the generated query against a database/sql handle and
// stores the rows on the state for the rephrase stage. Works with any
// driver; pair it with mattn/go-sqlite3 for an embedded setup.
type Executor struct {
	db      *sql.DB
	maxRows int
}

// New creates an executor. maxRows caps the rows serialized onto the
// state; 0 means the default of 100.
func New(db *sql.DB, maxRows int) *Executor {
	if maxRows <= 0 {
		maxRows = 100
	}
	return &Executor{db: db, maxRows: maxRows}
}

// Transform is the query-execution stage. Plug it into
// engine.Config.QueryExec.
func (e *Executor) Transform(ctx context.Context, s *conversation.State) error {
	if s.Query == "" {
		return fmt.Errorf("no query to execute")
	}

	rows, err := e.db.QueryContext(ctx, s.Query)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() && len(out) < e.maxRows {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration failed: %w", err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	s.QueryResult = string(data)
	return nil
}

// ReadOnlyValidator is a query-validation stage that rejects anything but
// a plain SELECT. Plug it into engine.Config.QueryValidate.
func ReadOnlyValidator(ctx context.Context, s *conversation.State) error {
	q := strings.TrimSpace(strings.ToLower(s.Query))
	if !strings.HasPrefix(q, "select") && !strings.HasPrefix(q, "with") {
		return fmt.Errorf("only read-only queries may be executed")
	}
	return nil
}
