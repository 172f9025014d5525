package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	accountsrepo "github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounts"
	tasksrepo "github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeAccountsRepo struct {
	created   *models.Account
	createErr error

	getOut   *models.Account
	getErr   error
	getCalls int
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = a
	return a, nil
}

func (f *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeTasksRepo struct {
	created   *models.Task
	createErr error

	getOut *models.Task
	getErr error
	gotID  string

	listOut    []*models.Task
	listErr    error
	listOwner  string
	listFilter models.TaskFilter

	updateN   int64
	updateErr error

	deleteN   int64
	deleteErr error
	deletedID string
}

func (f *fakeTasksRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = task
	return task, nil
}

func (f *fakeTasksRepo) Get(ctx context.Context, id, ownerID string) (*models.Task, error) {
	f.gotID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeTasksRepo) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error) {
	f.listOwner = ownerID
	f.listFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeTasksRepo) UpdateStatus(ctx context.Context, id, ownerID string, status models.TaskStatus) (int64, error) {
	return f.updateN, f.updateErr
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	f.deletedID = id
	return f.deleteN, f.deleteErr
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.a }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasksrepo.Repository       { return m.t }

type fakeHasher struct {
	hash    string
	salt    []byte
	hashErr error

	match       bool
	verifyCalls int
}

func (f *fakeHasher) Hash(plaintext string) (string, []byte, error) {
	if f.hashErr != nil {
		return "", nil, f.hashErr
	}
	return f.hash, f.salt, nil
}

func (f *fakeHasher) Verify(plaintext, hash string, salt []byte) bool {
	f.verifyCalls++
	return f.match
}

type fakeTokens struct {
	issueOut string
	issueErr error

	verifyOut *auth.Payload
	verifyErr error
}

func (f *fakeTokens) Issue(a *models.Account) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return f.issueOut, nil
}

func (f *fakeTokens) Verify(token string) (*auth.Payload, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyOut, nil
}
