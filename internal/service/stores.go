package service

import (
	"context"

	"github.com/google/uuid"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
	"taskflow/internal/repository"
)

// TaskStore is the task persistence used by TaskService.
type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	FindMany(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error)
	FindFirstByMaxOrder(ctx context.Context, projectID uuid.UUID, status model.TaskStatus) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	MoveTask(ctx context.Context, id uuid.UUID, status model.TaskStatus, order *int) (*model.Task, error)
}

type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Project, int64, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemberStore answers membership questions. GetRole returns an empty role
// for users without access.
type MemberStore interface {
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectRole, error)
	List(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error)
	Get(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectMember, error)
	Add(ctx context.Context, member *model.ProjectMember) error
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
}

// BoardCache holds projected boards per project. Implementations swallow
// their own failures; a miss is always safe. Set must drop the board when
// an Evict for the project happened after Generation returned gen.
type BoardCache interface {
	Get(ctx context.Context, projectID uuid.UUID) (kanban.Board, bool)
	Generation(ctx context.Context, projectID uuid.UUID) (gen int64, ok bool)
	Set(ctx context.Context, board kanban.Board, gen int64)
	Evict(ctx context.Context, projectID uuid.UUID)
}

var (
	_ TaskStore    = (*repository.TaskRepository)(nil)
	_ ProjectStore = (*repository.ProjectRepository)(nil)
	_ MemberStore  = (*repository.ProjectMemberRepository)(nil)
)
