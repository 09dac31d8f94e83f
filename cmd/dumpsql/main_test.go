package main

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darianmavgo/dumpsql/apply"
	"github.com/darianmavgo/dumpsql/config"
	"github.com/darianmavgo/dumpsql/converters/common"
)

const dump = "pg_dump: reading data for table \"public.repair_jobs\"\n" +
	"1\t2024-01-01\topen\t\\N\t\\N\tana\tf\tf\t10\t\\N\t100\n" +
	"2\t2024-01-02\tdone\t2\t2024-01-05\tbob\tt\tf\t11\t\\N\t101\n" +
	"\\.\n"

const dumpSQL = "INSERT INTO public.repair_jobs_new (id, created_at, status, repair_level, completed_date, technician, was_split, pause, order_id, jobs_temp, job_id) VALUES\n" +
	"(1, '2024-01-01', 'open', NULL, NULL, 'ana', 'f', 'f', 10, NULL, 100),\n" +
	"(2, '2024-01-02', 'done', 2, '2024-01-05', 'bob', 't', 'f', 11, NULL, 101);\n"

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"INPUT", "OUTPUT", "SCHEMA", "TABLE", "COLUMNS", "FORMAT",
		"ENCODING", "DATABASE_URL", "STRICT", "VALIDATE", "DECODE_ESCAPES", "BATCH_SIZE"} {
		if _, ok := os.LookupEnv(config.EnvPrefix + key); ok {
			t.Setenv(config.EnvPrefix+key, "")
			os.Unsetenv(config.EnvPrefix + key)
		}
	}

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), ".env")}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertFile(t *testing.T) {
	in := writeDump(t, dump)
	out := filepath.Join(t.TempDir(), "insert.sql")

	_, err := execute(t, "-i", in, "-o", out)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, dumpSQL, string(got))
}

func TestConvertSubcommand(t *testing.T) {
	in := writeDump(t, dump)
	stdout, err := execute(t, "convert", "--input", in, "--output", "-")
	require.NoError(t, err)
	assert.Equal(t, dumpSQL, stdout)
}

func TestConvertIdempotent(t *testing.T) {
	in := writeDump(t, dump)
	out := filepath.Join(t.TempDir(), "insert.sql")

	_, err := execute(t, "-i", in, "-o", out)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = execute(t, "-i", in, "-o", out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConvertTruncatesOutput(t *testing.T) {
	in := writeDump(t, "7\n")
	out := filepath.Join(t.TempDir(), "insert.sql")
	require.NoError(t, os.WriteFile(out, []byte(strings.Repeat("stale ", 1000)), 0644))

	_, err := execute(t, "-i", in, "-o", out, "-t", "t", "-c", "a")
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO public.t (a) VALUES\n(7);\n", string(got))
}

func TestConvertFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dumpsql.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
table_name = "from_file"
schema     = "audit"
columns    = ["id", "name"]
`), 0644))
	in := writeDump(t, "1\tO'Brien\n")

	stdout, err := execute(t, "--config", cfgPath, "-i", in, "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO audit.from_file (id, name) VALUES\n(1, 'O'Brien');\n", stdout)

	stdout, err = execute(t, "--config", cfgPath, "-i", in, "-o", "-", "-t", "from_flag", "--strict")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO audit.from_flag (id, name) VALUES\n(1, 'O''Brien');\n", stdout)
}

func TestConvertEnvironment(t *testing.T) {
	in := writeDump(t, "1\t2\n")
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("DUMPSQL_TABLE=env_table\nDUMPSQL_COLUMNS=x,y\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("DUMPSQL_TABLE")
		os.Unsetenv("DUMPSQL_COLUMNS")
	})

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", env, "-i", in, "-o", "-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "INSERT INTO public.env_table (x, y) VALUES\n(1, 2);\n", stdout.String())
}

func TestConvertSQLiteFormat(t *testing.T) {
	in := writeDump(t, dump)
	out := filepath.Join(t.TempDir(), "jobs.db")

	_, err := execute(t, "-i", in, "-o", out, "-f", "sqlite", "--batch-size", "1")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", out)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM repair_jobs_new`).Scan(&count))
	assert.Equal(t, 2, count)

	var technician string
	require.NoError(t, db.QueryRow(`SELECT technician FROM repair_jobs_new WHERE id = 2`).Scan(&technician))
	assert.Equal(t, "bob", technician)
}

func TestConvertValidate(t *testing.T) {
	in := writeDump(t, "1\tO'Brien\n")

	stdout, err := execute(t, "-i", in, "-o", "-", "-t", "people", "-c", "id,name", "--strict", "--validate")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO public.people (id, name) VALUES\n(1, 'O''Brien');\n", stdout)

	out := filepath.Join(t.TempDir(), "people.sql")
	_, err = execute(t, "-i", in, "-o", out, "-t", "people", "-c", "id,name", "--validate")
	assert.ErrorIs(t, err, common.ErrInvalidSQL)
	assert.Equal(t, ExitValidationFailed, ExitCodeForError(err))
	assert.NoFileExists(t, out)
}

func TestConvertFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeDump(t, dump)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"MissingInput", []string{"-i", filepath.Join(dir, "absent.sql"), "-o", filepath.Join(dir, "a.sql")}, ExitInputError},
		{"MissingOutputDir", []string{"-i", good, "-o", filepath.Join(dir, "no", "such", "dir.sql")}, ExitOutputError},
		{"StrictEmpty", []string{"-i", writeDump(t, "pg_dump banner\n\\.\n"), "-o", filepath.Join(dir, "b.sql"), "--strict"}, ExitEmptyInput},
		{"StrictArity", []string{"-i", writeDump(t, "1\t2\n"), "-o", filepath.Join(dir, "c.sql"), "--strict"}, ExitMalformedRecord},
		{"UnknownFormat", []string{"-i", good, "-o", filepath.Join(dir, "d.parquet"), "-f", "parquet"}, ExitConfigError},
		{"BadTable", []string{"-i", good, "-o", filepath.Join(dir, "e.sql"), "-t", "drop table"}, ExitConfigError},
		{"NoOutput", []string{"-i", good}, ExitConfigError},
		{"UnknownFlag", []string{"--colour"}, ExitUsageError},
		{"ExtraArgument", []string{"-i", good, "-o", "-", "extra"}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestConvertRemovesPartialOutput(t *testing.T) {
	in := writeDump(t, "1\t2\n3\n")
	out := filepath.Join(t.TempDir(), "partial.sql")

	_, err := execute(t, "-i", in, "-o", out, "-t", "t", "-c", "a,b", "--strict")
	var malformed *common.MalformedRecordError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Equal(t, 2, malformed.Line)
	assert.NoFileExists(t, out)
}

func TestConvertEmptyFaithful(t *testing.T) {
	in := writeDump(t, "")
	stdout, err := execute(t, "-i", in, "-o", "-", "-t", "t", "-c", "a")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO public.t (a) VALUES\n;\n", stdout)
}

func TestConfigExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exported.hcl")
	_, err := execute(t, "config", "export", path, "-t", "jobs", "-c", "id,status", "--strict")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jobs", cfg.TableName)
	assert.Equal(t, []string{"id", "status"}, cfg.Columns)
	assert.True(t, cfg.Strict)

	_, err = execute(t, "config", "export")
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
}

func TestFormats(t *testing.T) {
	stdout, err := execute(t, "formats")
	require.NoError(t, err)
	assert.Equal(t, "csv\njson\nsql\nsqlite\nxlsx\n", stdout)
}

func TestApplyRequiresDatabaseURL(t *testing.T) {
	in := writeDump(t, dump)
	_, err := execute(t, "apply", "-i", in)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, ExitConfigError, ExitCodeForError(err))
}

func TestApplyUnreachableDatabase(t *testing.T) {
	in := writeDump(t, dump)
	_, err := execute(t, "apply", "-i", in, "--database-url", "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.ErrorIs(t, err, apply.ErrDatabase)
	assert.Equal(t, ExitDatabaseError, ExitCodeForError(err))
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{usageError("bad"), ExitUsageError},
		{fmt.Errorf("x: %w", config.ErrInvalidConfig), ExitConfigError},
		{fmt.Errorf("x: %w", common.ErrUnknownFormat), ExitConfigError},
		{fmt.Errorf("x: %w", common.ErrInputUnreadable), ExitInputError},
		{fmt.Errorf("x: %w", common.ErrOutputUnwritable), ExitOutputError},
		{&common.MalformedRecordError{Line: 3, Got: 1, Want: 2}, ExitMalformedRecord},
		{fmt.Errorf("x: %w", common.ErrEmptyInput), ExitEmptyInput},
		{fmt.Errorf("x: %w", common.ErrInvalidSQL), ExitValidationFailed},
		{fmt.Errorf("x: %w", apply.ErrDatabase), ExitDatabaseError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCodeForError(tt.err), "error: %v", tt.err)
	}
}
