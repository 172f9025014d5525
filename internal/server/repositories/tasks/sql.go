// Package tasks provides the SQL-backed, owner-scoped task repository. The
// queries run unchanged on PostgreSQL (pgx) and SQLite.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, owner_id, title, description, status)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Description, string(task.Status)); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// Get returns the task with id owned by ownerID, or common.ErrorNotFound.
func (r *SQLRepository) Get(ctx context.Context, id, ownerID string) (*models.Task, error) {
	query :=
		`SELECT id, owner_id, title, description, status FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&task.ID, &task.OwnerID, &task.Title, &task.Description, &task.Status)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// List returns ownerID's tasks matching filter in insertion order. Task ids
// are UUIDv7, so ordering by id is ordering by creation.
func (r *SQLRepository) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT id, owner_id, title, description, status FROM tasks WHERE owner_id = $1`)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		fmt.Fprintf(&b, ` AND status = $%d`, len(args))
	}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		fmt.Fprintf(&b, ` AND (LOWER(title) LIKE LOWER($%d) ESCAPE '\' OR LOWER(description) LIKE LOWER($%d) ESCAPE '\')`, n, n)
	}

	b.WriteString(` ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		var item models.Task
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Status); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus sets the status of the task with id owned by ownerID and
// returns the number of rows changed.
func (r *SQLRepository) UpdateStatus(ctx context.Context, id, ownerID string, status models.TaskStatus) (int64, error) {
	query :=
		`UPDATE tasks SET status = $1
		 WHERE id = $2 AND owner_id = $3
		 `

	return r.exec(ctx, query, string(status), id, ownerID)
}

// Delete removes the task with id owned by ownerID and returns the number of
// rows removed.
func (r *SQLRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	query :=
		`DELETE FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	return r.exec(ctx, query, id, ownerID)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
