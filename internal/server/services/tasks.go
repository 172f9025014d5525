package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TaskService manages tasks on behalf of an acting account. Every operation
// is restricted to tasks the account owns; tasks owned by someone else look
// exactly like missing ones.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	newID       func() (uuid.UUID, error)
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, logger: logger, newID: uuid.NewV7}
}

// List returns the account's tasks matching filter, oldest first.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter, account *models.Account) ([]*models.Task, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, common.ErrorValidation
	}

	tasks, err := s.repomanager.Tasks(s.db).List(ctx, account.ID, filter)
	if err != nil {
		s.logger.Error(ctx, "task listing failed", "error", err)
		return nil, common.ErrorInternal
	}
	return tasks, nil
}

// GetByID returns the account's task with id, or common.ErrorNotFound.
func (s *TaskService) GetByID(ctx context.Context, id string, account *models.Account) (*models.Task, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}

	task, err := s.repomanager.Tasks(s.db).Get(ctx, id, account.ID)
	if err != nil {
		return nil, s.translate(ctx, "task lookup failed", err)
	}
	return task, nil
}

// Create stores a new OPEN task owned by account. draft.Status is ignored.
func (s *TaskService) Create(ctx context.Context, draft models.TaskDraft, account *models.Account) (*models.Task, error) {
	id, err := s.newID()
	if err != nil {
		s.logger.Error(ctx, "task id generation failed", "error", err)
		return nil, common.ErrorInternal
	}

	task := &models.Task{
		ID:          id.String(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      models.TaskStatusOpen,
		OwnerID:     account.ID,
	}

	task, err = s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		s.logger.Error(ctx, "task creation failed", "error", err)
		return nil, common.ErrorInternal
	}
	return task, nil
}

// UpdateStatus sets the status of the account's task with id and returns the
// updated task. The load and the write share one transaction.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status models.TaskStatus, account *models.Account) (*models.Task, error) {
	if !status.Valid() {
		return nil, common.ErrorValidation
	}

	id, ok := canonicalID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}

	var task *models.Task

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		t, err := repo.Get(ctx, id, account.ID)
		if err != nil {
			return err
		}

		n, err := repo.UpdateStatus(ctx, id, account.ID, status)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrorNotFound
		}

		t.Status = status
		task = t
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "task status update failed", err)
	}

	return task, nil
}

// Delete removes the account's task with id. Deleting a missing task, or one
// already deleted, yields common.ErrorNotFound.
func (s *TaskService) Delete(ctx context.Context, id string, account *models.Account) error {
	id, ok := canonicalID(id)
	if !ok {
		return common.ErrorNotFound
	}

	n, err := s.repomanager.Tasks(s.db).Delete(ctx, id, account.ID)
	if err != nil {
		return s.translate(ctx, "task deletion failed", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// translate maps repository errors onto the service error set.
func (s *TaskService) translate(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

// canonicalID normalizes a task id to the lowercase hyphenated form ids are
// stored in. ok is false when id is not a UUID at all.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
