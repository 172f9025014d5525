package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/pressly/goose/v3"
)

// goose dialect names per database/sql driver name.
var gooseDialects = map[string]string{
	DriverPostgres: "pgx",
	DriverSQLite:   "sqlite3",
}

// SQLRepositoryManager vends repositories whose queries are shared by all
// supported drivers. Only the migration set differs per driver.
type SQLRepositoryManager struct {
	dialect string
	dir     string
	logger  logging.Logger
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db)
}

// Tasks returns a tasks.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's driver.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(&gooseLogger{ctx: ctx, l: m.logger})
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, m.dir); err != nil {
		m.logger.Error(ctx, "migrations failed", "dialect", m.dialect, "error", err)
		return err
	}
	m.logger.Info(ctx, "migrations applied", "dialect", m.dialect, "dir", m.dir)
	return nil
}

// gooseLogger forwards goose output to a logging.Logger.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

// Fatalf does not exit; goose only calls it on failures that UpContext
// also reports as errors.
func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

// NewRepositoryManager returns a RepositoryManager for driver, which must be
// DriverPostgres or DriverSQLite. Migration output goes to logger.
func NewRepositoryManager(driver string, logger logging.Logger) (RepositoryManager, error) {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	dir, ok := migrations.Dirs[driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for database driver %q", driver)
	}
	return &SQLRepositoryManager{dialect: dialect, dir: dir, logger: logger}, nil
}
