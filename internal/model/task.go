package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidRole     = errors.New("invalid project role")
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists every status in board display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s TaskStatus) Valid() bool {
	_, err := ParseTaskStatus(string(s))
	return err == nil
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParseTaskPriority(s string) (TaskPriority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

func (p TaskPriority) Valid() bool {
	_, err := ParseTaskPriority(string(p))
	return err == nil
}

// Task is a unit of work inside a project. Order positions the task within
// its (ProjectID, Status) partition and has no meaning across partitions.
type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_tasks_partition,priority:1" json:"projectId"`
	Title       string       `gorm:"not null" json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(16);not null;index:idx_tasks_partition,priority:2" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(16);not null" json:"priority"`
	AssigneeID  *uuid.UUID   `gorm:"type:uuid" json:"assigneeId"`
	CreatorID   uuid.UUID    `gorm:"type:uuid;not null;<-:create" json:"creatorId"`
	DueDate     *time.Time   `json:"dueDate"`
	Order       int          `gorm:"column:sort_order;not null;index:idx_tasks_partition,priority:3" json:"order"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	Project  *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Creator  *User    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
