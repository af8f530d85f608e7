package migrations

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("read postgres migrations: %v", err)
	}
	want := []string{"001_runs.sql", "002_decision_rows.sql", "003_valuations.sql"}
	if strings.Join(pg, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, pg)
	}

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("read clickhouse migrations: %v", err)
	}
	if len(ch) != 1 || ch[0] != "001_scenario_summaries.sql" {
		t.Errorf("unexpected clickhouse migrations: %v", ch)
	}
}

func TestSplitStatements(t *testing.T) {
	input := `
-- comment line; with semicolon
CREATE TABLE a (x Int64);

CREATE TABLE b (
    y String
)
ENGINE = MergeTree();
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x Int64)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") || strings.Contains(stmts[1], ";") {
		t.Errorf("unexpected second statement %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		sql     string
		wantErr bool
	}{
		{"SELECT 'a'; SELECT 'b';", false},
		{"SELECT 'it''s'; SELECT 1;", false},
		{"SELECT 'a;b';", true},
	}
	for _, tt := range tests {
		err := validateNoSemicolonInStrings(tt.sql)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: wantErr=%v, got %v", tt.sql, tt.wantErr, err)
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := DatabaseFromDSN("clickhouse://default:pw@localhost:9000/entrylab")
	if err != nil {
		t.Fatalf("DatabaseFromDSN failed: %v", err)
	}
	if db != "entrylab" {
		t.Errorf("expected entrylab, got %s", db)
	}

	if _, err := DatabaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}

type recordingExecer struct {
	stmts []string
	fail  bool
}

func (r *recordingExecer) Exec(_ context.Context, query string, _ ...any) error {
	if r.fail {
		return errors.New("boom")
	}
	r.stmts = append(r.stmts, query)
	return nil
}

func TestApplyClickhouse(t *testing.T) {
	rec := &recordingExecer{}
	if err := ApplyClickhouse(context.Background(), rec); err != nil {
		t.Fatalf("ApplyClickhouse failed: %v", err)
	}
	if len(rec.stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(rec.stmts))
	}
	if !strings.Contains(rec.stmts[0], "CREATE TABLE IF NOT EXISTS scenario_summaries") {
		t.Errorf("unexpected statement %q", rec.stmts[0])
	}

	if err := ApplyClickhouse(context.Background(), &recordingExecer{fail: true}); err == nil {
		t.Error("expected error from failing execer")
	}
}
