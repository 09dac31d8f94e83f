// Package validate checks a generated INSERT statement with the Postgres parser.
package validate

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/darianmavgo/dumpsql/converters/common"
)

// Result summarizes a statement that passed validation.
type Result struct {
	Schema  string
	Table   string
	Columns []string
	Rows    int
}

// Statement parses sql and checks that it is exactly one INSERT into schema.table
// whose VALUES rows all have len(columns) entries. Every failure wraps common.ErrInvalidSQL.
func Statement(sql, schema, table string, columns []string) (*Result, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSQL, err)
	}
	if len(tree.Stmts) != 1 {
		return nil, fmt.Errorf("%w: expected 1 statement, got %d", common.ErrInvalidSQL, len(tree.Stmts))
	}

	insert := tree.Stmts[0].Stmt.GetInsertStmt()
	if insert == nil || insert.Relation == nil {
		return nil, fmt.Errorf("%w: statement is not an INSERT", common.ErrInvalidSQL)
	}

	res := &Result{
		Schema: insert.Relation.Schemaname,
		Table:  insert.Relation.Relname,
	}
	if !strings.EqualFold(res.Schema, schema) || !strings.EqualFold(res.Table, table) {
		return nil, fmt.Errorf("%w: inserts into %s.%s, expected %s.%s",
			common.ErrInvalidSQL, res.Schema, res.Table, schema, table)
	}

	for _, target := range insert.Cols {
		if rt := target.GetResTarget(); rt != nil {
			res.Columns = append(res.Columns, rt.Name)
		}
	}
	if len(res.Columns) != len(columns) {
		return nil, fmt.Errorf("%w: %d columns listed, expected %d", common.ErrInvalidSQL, len(res.Columns), len(columns))
	}

	sel := insert.SelectStmt.GetSelectStmt()
	if sel == nil || len(sel.ValuesLists) == 0 {
		return nil, fmt.Errorf("%w: INSERT has no VALUES rows", common.ErrInvalidSQL)
	}
	for i, values := range sel.ValuesLists {
		n := len(values.GetList().GetItems())
		if n != len(columns) {
			return nil, fmt.Errorf("%w: VALUES row %d has %d entries, expected %d",
				common.ErrInvalidSQL, i+1, n, len(columns))
		}
	}
	res.Rows = len(sel.ValuesLists)
	return res, nil
}
