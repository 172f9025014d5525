package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists tasks. Every read and write is scoped to an owner id;
// there is no way to address a task without naming its owner.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, id, ownerID string) (*models.Task, error)
	List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error)
	UpdateStatus(ctx context.Context, id, ownerID string, status models.TaskStatus) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}
