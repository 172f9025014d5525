package repomanager

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewZerologLogger(zerolog.New(io.Discard))
}

func TestNewRepositoryManager(t *testing.T) {
	tests := []struct {
		driver  string
		dialect string
		dir     string
		wantErr bool
	}{
		{driver: DriverPostgres, dialect: "pgx", dir: "postgres"},
		{driver: DriverSQLite, dialect: "sqlite3", dir: "sqlite"},
		{driver: "mysql", wantErr: true},
		{driver: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			m, err := NewRepositoryManager(tt.driver, discardLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			sm, ok := m.(*SQLRepositoryManager)
			require.True(t, ok)
			assert.Equal(t, tt.dialect, sm.dialect)
			assert.Equal(t, tt.dir, sm.dir)
		})
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &SQLRepositoryManager{}

	if a := m.Accounts(db); a == nil {
		t.Fatal("Accounts() nil")
	}
	if ts := m.Tasks(db); ts == nil {
		t.Fatal("Tasks() nil")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "postgres" {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m, err := NewRepositoryManager(DriverPostgres, discardLogger())
	require.NoError(t, err)
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: "pgx", dir: "postgres", logger: discardLogger()}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_BadDialect(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &SQLRepositoryManager{dialect: "nope", dir: "postgres", logger: discardLogger()}
	require.Error(t, m.RunMigrations(context.Background(), db))
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	_, err := OpenDB(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}

func TestSQLite_MigrateAndUse(t *testing.T) {
	ctx := context.Background()

	db, err := OpenDB(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	m, err := NewRepositoryManager(DriverSQLite, discardLogger())
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))
	// Applying twice is a no-op.
	require.NoError(t, m.RunMigrations(ctx, db))

	account := &models.Account{ID: "a1", Username: "alice", PasswordHash: "h", Salt: []byte{1}}
	_, err = m.Accounts(db).Create(ctx, account)
	require.NoError(t, err)

	task := &models.Task{ID: "t1", OwnerID: "a1", Title: "Buy milk", Status: models.TaskStatusOpen}
	_, err = m.Tasks(db).Create(ctx, task)
	require.NoError(t, err)

	got, err := m.Tasks(db).Get(ctx, "t1", "a1")
	require.NoError(t, err)
	assert.Equal(t, task, got)

	orphan := &models.Task{ID: "t2", OwnerID: "missing", Title: "x", Status: models.TaskStatusOpen}
	_, err = m.Tasks(db).Create(ctx, orphan)
	require.Error(t, err, "foreign key must reject unknown owner")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRunMigrations_LogsThroughLogger(t *testing.T) {
	ctx := context.Background()

	db, err := OpenDB(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	m, err := NewRepositoryManager(DriverSQLite, logging.NewZerologLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))

	var gooseLines, applied int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %q", line)
		msg, _ := entry["message"].(string)
		if entry["component"] == "goose" {
			gooseLines++
			assert.Equal(t, "info", entry["level"])
		}
		if msg == "migrations applied" {
			applied++
			assert.Equal(t, "sqlite3", entry["dialect"])
		}
	}
	assert.Positive(t, gooseLines)
	assert.Equal(t, 1, applied)
	assert.Contains(t, buf.String(), "00001_create_accounts.sql")
	assert.Contains(t, buf.String(), "00002_create_tasks.sql")
}

func TestSQLite_LowerFoldsUnicode(t *testing.T) {
	ctx := context.Background()

	db, err := OpenDB(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		in   any
		want sql.NullString
	}{
		{in: "ÜBER CAFÉ", want: sql.NullString{String: "über café", Valid: true}},
		{in: "Straße ÀÉÎ", want: sql.NullString{String: "straße àéî", Valid: true}},
		{in: "ascii", want: sql.NullString{String: "ascii", Valid: true}},
		{in: nil, want: sql.NullString{}},
	}

	for _, tt := range tests {
		var got sql.NullString
		require.NoError(t, db.QueryRowContext(ctx, "SELECT lower($1)", tt.in).Scan(&got))
		assert.Equal(t, tt.want, got)
	}
}
