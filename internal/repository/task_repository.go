package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskFilter narrows FindMany. Zero values are ignored.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	Status     model.TaskStatus
	Priority   model.TaskPriority
	AssigneeID *uuid.UUID
	// MemberID limits results to projects the user owns or belongs to.
	MemberID *uuid.UUID
	Limit    int
	Offset   int
}

func (f TaskFilter) scope(db *gorm.DB) *gorm.DB {
	if f.ProjectID != nil {
		db = db.Where("tasks.project_id = ?", *f.ProjectID)
	}
	if f.Status != "" {
		db = db.Where("tasks.status = ?", f.Status)
	}
	if f.Priority != "" {
		db = db.Where("tasks.priority = ?", f.Priority)
	}
	if f.AssigneeID != nil {
		db = db.Where("tasks.assignee_id = ?", *f.AssigneeID)
	}
	if f.MemberID != nil {
		db = db.Where(
			"tasks.project_id IN (SELECT id FROM projects WHERE owner_id = ?) OR tasks.project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			*f.MemberID, *f.MemberID,
		)
	}
	return db
}

func (f TaskFilter) validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidPriority, f.Priority)
	}
	return nil
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if !task.Status.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, task.Status)
	}
	if !task.Priority.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidPriority, task.Priority)
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// GetByID retrieves a task with its project, assignee and creator
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Assignee").
		Preload("Creator").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// FindMany returns one page of tasks matching the filter and the total
// number of matches. Tasks are ordered by position, newest first on ties.
func (r *TaskRepository) FindMany(ctx context.Context, filter TaskFilter) ([]model.Task, int64, error) {
	if err := filter.validate(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Scopes(filter.scope).
		Preload("Assignee").
		Preload("Creator").
		Order("tasks.sort_order ASC").
		Order("tasks.created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// FindFirstByMaxOrder returns the task with the highest order in the
// (projectID, status) partition, or nil if the partition is empty.
func (r *TaskRepository) FindFirstByMaxOrder(ctx context.Context, projectID uuid.UUID, status model.TaskStatus) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, status).
		Order("sort_order DESC").
		Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update writes the general task fields. Status and order only change
// through MoveTask.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if !task.Priority.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidPriority, task.Priority)
	}
	result := r.db.WithContext(ctx).
		Model(task).
		Select("Title", "Description", "Priority", "AssigneeID", "DueDate", "UpdatedAt").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task and closes the gap it leaves in its partition
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		if err := tx.Delete(&model.Task{}, "id = ?", id).Error; err != nil {
			return err
		}

		siblings, err := lockPartition(tx, task.ProjectID, task.Status)
		if err != nil {
			return err
		}
		before := snapshotPositions(siblings)
		return writeChanged(tx, before, kanban.Renumber(siblings))
	})
}

// MoveTask puts a task at index order of the status partition and renumbers
// the partitions it leaves and enters to 0..n-1, all in one transaction.
//
// order is clamped to the destination length. A nil order keeps the task's
// current index when the status is unchanged and appends otherwise. Only
// rows whose status or order actually change are written.
func (r *TaskRepository) MoveTask(ctx context.Context, taskID uuid.UUID, status model.TaskStatus, order *int) (*model.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}

	var moved model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		origin, err := lockPartition(tx, task.ProjectID, task.Status)
		if err != nil {
			return err
		}
		dest := origin
		if status != task.Status {
			dest, err = lockPartition(tx, task.ProjectID, status)
			if err != nil {
				return err
			}
		}

		index := len(dest)
		switch {
		case order != nil:
			index = *order
		case status == task.Status:
			index = indexOf(origin, task.ID)
		}

		before := snapshotPositions(origin)
		for id, pos := range snapshotPositions(dest) {
			before[id] = pos
		}

		newOrigin, newDest, index := kanban.Splice(origin, dest, task, status, index)
		if status != task.Status {
			if err := writeChanged(tx, before, newOrigin); err != nil {
				return err
			}
		}
		if err := writeChanged(tx, before, newDest); err != nil {
			return err
		}

		moved = newDest[index]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

type position struct {
	status model.TaskStatus
	order  int
}

func lockPartition(tx *gorm.DB, projectID uuid.UUID, status model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND status = ?", projectID, status).
		Order("sort_order ASC").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func snapshotPositions(tasks []model.Task) map[uuid.UUID]position {
	out := make(map[uuid.UUID]position, len(tasks))
	for _, t := range tasks {
		out[t.ID] = position{status: t.Status, order: t.Order}
	}
	return out
}

func writeChanged(tx *gorm.DB, before map[uuid.UUID]position, after []model.Task) error {
	for _, t := range after {
		if prev, ok := before[t.ID]; ok && prev.status == t.Status && prev.order == t.Order {
			continue
		}
		err := tx.Model(&model.Task{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":     t.Status,
				"sort_order": t.Order,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func indexOf(tasks []model.Task, id uuid.UUID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return len(tasks)
}
