// Package apply runs a converted dump against a live Postgres database.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/darianmavgo/dumpsql/converters/common"
)

// ErrDatabase indicates the statement could not be applied to the database.
var ErrDatabase = errors.New("database error")

// Result reports what an Apply did.
type Result struct {
	RowsInserted int64
}

// Apply converts the dump held by conv into one INSERT and executes it inside a single
// transaction. Nothing is committed unless every row is inserted.
func Apply(ctx context.Context, databaseURL string, conv common.StreamConverter) (*Result, error) {
	var stmt strings.Builder
	if err := conv.ConvertToSQL(&stmt); err != nil {
		return nil, err
	}
	return Exec(ctx, databaseURL, stmt.String())
}

// Exec executes statement in its own transaction.
func Exec(ctx context.Context, databaseURL, statement string) (*Result, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w: %v", ErrDatabase, err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w: %v", ErrDatabase, err)
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	tag, err := tx.Exec(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to execute INSERT: %w: %v", ErrDatabase, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w: %v", ErrDatabase, err)
	}

	slog.Debug("statement applied", "rows", tag.RowsAffected())
	return &Result{RowsInserted: tag.RowsAffected()}, nil
}
