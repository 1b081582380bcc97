package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
	"taskflow/internal/repository"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskStore) FindMany(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskStore) FindFirstByMaxOrder(ctx context.Context, projectID uuid.UUID, status model.TaskStatus) (*model.Task, error) {
	args := m.Called(ctx, projectID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskStore) MoveTask(ctx context.Context, id uuid.UUID, status model.TaskStatus, order *int) (*model.Task, error) {
	args := m.Called(ctx, id, status, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

type MockMemberStore struct {
	mock.Mock
}

func (m *MockMemberStore) GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectRole, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(model.ProjectRole), args.Error(1)
}

func (m *MockMemberStore) List(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	args := m.Called(ctx, projectID)
	members, _ := args.Get(0).([]model.ProjectMember)
	return members, args.Error(1)
}

func (m *MockMemberStore) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectMember, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProjectMember), args.Error(1)
}

func (m *MockMemberStore) Add(ctx context.Context, member *model.ProjectMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberStore) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error {
	args := m.Called(ctx, projectID, userID, role)
	return args.Error(0)
}

func (m *MockMemberStore) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) Create(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectStore) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Project, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	projects, _ := args.Get(0).([]model.Project)
	return projects, args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectStore) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockBoardCache struct {
	mock.Mock
}

func (m *MockBoardCache) Get(ctx context.Context, projectID uuid.UUID) (kanban.Board, bool) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(kanban.Board), args.Bool(1)
}

func (m *MockBoardCache) Generation(ctx context.Context, projectID uuid.UUID) (int64, bool) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Bool(1)
}

func (m *MockBoardCache) Set(ctx context.Context, board kanban.Board, gen int64) {
	m.Called(ctx, board, gen)
}

func (m *MockBoardCache) Evict(ctx context.Context, projectID uuid.UUID) {
	m.Called(ctx, projectID)
}
