// Package sqlite loads converted dump rows into a SQLite database file.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"

	_ "modernc.org/sqlite"
)

// BatchSize defines the number of rows to insert before committing a transaction.
var BatchSize = 1000

func init() {
	converters.Register("sqlite", &sqliteFormat{})
}

type sqliteFormat struct{}

func (f *sqliteFormat) Export(provider common.RowProvider, writer io.Writer) error {
	return ImportToSQLite(provider, writer)
}

// ImportToSQLite imports data from a RowProvider and writes the resulting SQLite database
// to the provided io.Writer.
// If writer is a regular *os.File, the database is built in place. Otherwise it is built
// in a temporary file and copied to the writer once complete.
func ImportToSQLite(provider common.RowProvider, writer io.Writer) error {
	var dbPath string
	useTemp := true

	if f, ok := writer.(*os.File); ok {
		stat, err := f.Stat()
		if err == nil && stat.Mode().IsRegular() {
			dbPath = f.Name()
			useTemp = false
			slog.Debug("building sqlite database in place", "path", dbPath)
		}
	}

	if useTemp {
		tmpFile, err := os.CreateTemp("", "dumpsql-*.db")
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w: %v", common.ErrOutputUnwritable, err)
		}
		dbPath = tmpFile.Name()
		tmpFile.Close()
		defer os.Remove(dbPath)

		slog.Debug("building sqlite database in temp file", "path", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps tx.Stmt on the same handle
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA page_size = 65536; PRAGMA cache_size = -2000;"); err != nil {
		db.Close()
		return fmt.Errorf("failed to set PRAGMAs: %w", err)
	}

	err = populateDB(db, provider)
	if closeErr := db.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close database: %w", closeErr)
	}
	if err != nil || !useTemp {
		return err
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open temp file for reading: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(writer, f); err != nil {
		return fmt.Errorf("failed to write to output: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

// populateDB creates each table and inserts its rows, committing every BatchSize rows.
func populateDB(db *sql.DB, provider common.RowProvider) error {
	for _, tableName := range provider.GetTableNames() {
		headers := provider.GetHeaders(tableName)
		if len(headers) == 0 {
			continue
		}

		slog.Debug("creating table", "table", tableName, "columns", headers)
		if _, err := db.Exec(common.GenCreateTableSQL(tableName, headers)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}

		insertSQL, err := common.GenPreparedInsert(tableName, headers)
		if err != nil {
			return fmt.Errorf("failed to generate insert statement for table %s: %w", tableName, err)
		}
		mainStmt, err := db.Prepare(insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement for table %s: %w", tableName, err)
		}

		if err := insertRows(db, mainStmt, provider, tableName); err != nil {
			mainStmt.Close()
			return err
		}
		mainStmt.Close()
	}
	return nil
}

func insertRows(db *sql.DB, mainStmt *sql.Stmt, provider common.RowProvider, tableName string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt := tx.Stmt(mainStmt)

	rowCount := 0
	err = provider.ScanRows(tableName, func(row []interface{}) error {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("failed to insert row %d in table %s: %w", rowCount+1, tableName, err)
		}
		rowCount++
		if BatchSize > 0 && rowCount%BatchSize == 0 {
			stmt.Close()
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit transaction for table %s: %w", tableName, err)
			}
			next, err := db.Begin()
			if err != nil {
				tx = nil
				return fmt.Errorf("failed to begin transaction: %w", err)
			}
			tx = next
			stmt = tx.Stmt(mainStmt)
		}
		return nil
	})

	if tx == nil {
		return err
	}
	stmt.Close()
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for table %s: %w", tableName, err)
	}
	slog.Debug("finished table", "table", tableName, "rows", rowCount)
	return nil
}
