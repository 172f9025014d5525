package models

// TaskStatus is the closed set of task states.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one account.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	OwnerID     string     `json:"ownerId"`
}

// TaskDraft carries caller input for a new task. Status is accepted for
// compatibility with clients that send it, but new tasks always start OPEN.
type TaskDraft struct {
	Title       string
	Description string
	Status      TaskStatus
}

// TaskFilter narrows a task listing. Nil Status and empty Search match
// everything; set fields combine with AND.
type TaskFilter struct {
	Status *TaskStatus
	Search string
}
