package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
	"taskflow/internal/repository"
)

const tracerName = "taskflow/internal/service"

type TaskService struct {
	tasks   TaskStore
	members MemberStore
	cache   BoardCache
}

// NewTaskService wires the task use cases. cache may be nil.
func NewTaskService(tasks TaskStore, members MemberStore, cache BoardCache) *TaskService {
	return &TaskService{tasks: tasks, members: members, cache: cache}
}

type CreateTaskInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	Status      string
	Priority    string
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	Order       *int
}

// UpdateTaskInput carries a partial update. Nil fields are left alone; an
// empty AssigneeID or DueDate clears the value.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	AssigneeID  *string
	DueDate     *string
}

type TaskQuery struct {
	ProjectID  *uuid.UUID
	Status     string
	Priority   string
	AssigneeID *uuid.UUID
	Limit      int
	Offset     int
}

func (s *TaskService) tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// AllocateOrder returns the next free position at the end of the
// (projectID, status) partition: one past the current maximum, or 0.
func (s *TaskService) AllocateOrder(ctx context.Context, projectID uuid.UUID, status model.TaskStatus) (int, error) {
	ctx, span := s.tracer().Start(ctx, "task.allocate_order", trace.WithAttributes(
		attribute.String("project.id", projectID.String()),
		attribute.String("task.status", string(status)),
	))
	defer span.End()

	last, err := s.tasks.FindFirstByMaxOrder(ctx, projectID, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("allocate order: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	return last.Order + 1, nil
}

// SetTaskStatusAndOrder is the authoritative write for a drag gesture. It
// moves the task into status at index order and renumbers the affected
// partitions in one transaction.
func (s *TaskService) SetTaskStatusAndOrder(ctx context.Context, actorID, taskID uuid.UUID, status string, order *int) (task *model.Task, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("task.id", taskID.String()),
		attribute.String("task.status", status),
	}
	if order != nil {
		attrs = append(attrs, attribute.Int("task.order", *order))
	}
	ctx, span := s.tracer().Start(ctx, "task.set_status_and_order", trace.WithAttributes(attrs...))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	newStatus, err := model.ParseTaskStatus(status)
	if err != nil {
		return nil, invalid("Invalid status")
	}
	if order != nil && *order < 0 {
		return nil, invalid("Order must be a non-negative integer")
	}

	current, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	role, err := s.members.GetRole(ctx, current.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if !role.CanEditTasks() {
		return nil, forbidden("you do not have permission to move this task")
	}

	if _, err := s.tasks.MoveTask(ctx, taskID, newStatus, order); err != nil {
		return nil, err
	}
	s.evict(ctx, current.ProjectID)

	return s.tasks.GetByID(ctx, taskID)
}

func (s *TaskService) CreateTask(ctx context.Context, actorID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Title is required")
	}
	if in.ProjectID == uuid.Nil {
		return nil, invalid("Project ID is required")
	}

	status := model.StatusTodo
	if in.Status != "" {
		st, err := model.ParseTaskStatus(in.Status)
		if err != nil {
			return nil, invalid("Invalid status")
		}
		status = st
	}
	priority := model.PriorityMedium
	if in.Priority != "" {
		p, err := model.ParseTaskPriority(in.Priority)
		if err != nil {
			return nil, invalid("Invalid priority")
		}
		priority = p
	}
	if in.Order != nil && *in.Order < 0 {
		return nil, invalid("Order must be a non-negative integer")
	}

	role, err := s.members.GetRole(ctx, in.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if !role.CanEditTasks() {
		return nil, forbidden("you do not have permission to create tasks in this project")
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, in.ProjectID, *in.AssigneeID); err != nil {
			return nil, err
		}
	}

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		order, err = s.AllocateOrder(ctx, in.ProjectID, status)
		if err != nil {
			return nil, err
		}
	}

	task := &model.Task{
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: normalizeText(in.Description),
		Status:      status,
		Priority:    priority,
		AssigneeID:  in.AssigneeID,
		CreatorID:   actorID,
		DueDate:     in.DueDate,
		Order:       order,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.evict(ctx, in.ProjectID)

	return s.tasks.GetByID(ctx, task.ID)
}

func (s *TaskService) GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	role, err := s.members.GetRole(ctx, task.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, forbidden("you do not have access to this task")
	}
	return task, nil
}

// ListTasks returns a page of tasks. Without a project filter it covers every
// project the actor can see.
func (s *TaskService) ListTasks(ctx context.Context, actorID uuid.UUID, q TaskQuery) ([]model.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID:  q.ProjectID,
		AssigneeID: q.AssigneeID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.Status != "" {
		st, err := model.ParseTaskStatus(q.Status)
		if err != nil {
			return nil, 0, invalid("Invalid status")
		}
		filter.Status = st
	}
	if q.Priority != "" {
		p, err := model.ParseTaskPriority(q.Priority)
		if err != nil {
			return nil, 0, invalid("Invalid priority")
		}
		filter.Priority = p
	}

	if q.ProjectID != nil {
		role, err := s.members.GetRole(ctx, *q.ProjectID, actorID)
		if err != nil {
			return nil, 0, err
		}
		if role == "" {
			return nil, 0, forbidden("you do not have access to this project")
		}
	} else {
		filter.MemberID = &actorID
	}

	tasks, total, err := s.tasks.FindMany(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask applies a general edit. Status and order are not touched here.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	role, err := s.members.GetRole(ctx, task.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if !role.CanEditTasks() {
		return nil, forbidden("you do not have permission to edit this task")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("Title is required")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = normalizeText(in.Description)
	}
	if in.Priority != nil {
		p, err := model.ParseTaskPriority(*in.Priority)
		if err != nil {
			return nil, invalid("Invalid priority")
		}
		task.Priority = p
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			task.AssigneeID = nil
		} else {
			assignee, err := uuid.Parse(*in.AssigneeID)
			if err != nil {
				return nil, invalid("Invalid assignee ID")
			}
			if err := s.checkAssignee(ctx, task.ProjectID, assignee); err != nil {
				return nil, err
			}
			task.AssigneeID = &assignee
		}
	}
	if in.DueDate != nil {
		if *in.DueDate == "" {
			task.DueDate = nil
		} else {
			due, err := time.Parse(time.RFC3339, *in.DueDate)
			if err != nil {
				return nil, invalid("Invalid due date")
			}
			task.DueDate = &due
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ProjectID)

	return s.tasks.GetByID(ctx, taskID)
}

// DeleteTask removes a task. The creator or a project owner/admin may do so.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	role, err := s.members.GetRole(ctx, task.ProjectID, actorID)
	if err != nil {
		return err
	}
	if role == "" || (task.CreatorID != actorID && !role.CanManage()) {
		return forbidden("you do not have permission to delete this task")
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.evict(ctx, task.ProjectID)
	return nil
}

// GetKanban returns the project's board, served from the cache when
// possible.
func (s *TaskService) GetKanban(ctx context.Context, actorID, projectID uuid.UUID) (kanban.Board, error) {
	role, err := s.members.GetRole(ctx, projectID, actorID)
	if err != nil {
		return kanban.Board{}, err
	}
	if role == "" {
		return kanban.Board{}, forbidden("you do not have access to this project")
	}

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		if board, ok := s.cache.Get(ctx, projectID); ok {
			return board, nil
		}
		gen, cacheable = s.cache.Generation(ctx, projectID)
	}

	tasks, _, err := s.tasks.FindMany(ctx, repository.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return kanban.Board{}, fmt.Errorf("load board: %w", err)
	}
	board := kanban.Project(projectID, tasks)

	if cacheable {
		s.cache.Set(ctx, board, gen)
	}
	return board, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, projectID, assigneeID uuid.UUID) error {
	role, err := s.members.GetRole(ctx, projectID, assigneeID)
	if err != nil {
		return err
	}
	if role == "" {
		return invalid("Assignee must be a member of the project")
	}
	return nil
}

func (s *TaskService) evict(ctx context.Context, projectID uuid.UUID) {
	if s.cache != nil {
		s.cache.Evict(ctx, projectID)
	}
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
