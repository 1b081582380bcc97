package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func intPtr(v int) *int { return &v }

type taskFixture struct {
	tasks   *MockTaskStore
	members *MockMemberStore
	cache   *MockBoardCache
	svc     *service.TaskService
}

func newTaskFixture() taskFixture {
	f := taskFixture{
		tasks:   new(MockTaskStore),
		members: new(MockMemberStore),
		cache:   new(MockBoardCache),
	}
	f.svc = service.NewTaskService(f.tasks, f.members, f.cache)
	return f
}

func (f taskFixture) assertExpectations(t *testing.T) {
	f.tasks.AssertExpectations(t)
	f.members.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestAllocateOrder_AfterMax(t *testing.T) {
	// Arrange
	f := newTaskFixture()
	projectID := uuid.New()
	f.tasks.On("FindFirstByMaxOrder", mock.Anything, projectID, model.StatusTodo).
		Return(&model.Task{Order: 5}, nil)

	// Act
	order, err := f.svc.AllocateOrder(context.Background(), projectID, model.StatusTodo)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 6, order)
	f.assertExpectations(t)
}

func TestAllocateOrder_EmptyPartition(t *testing.T) {
	f := newTaskFixture()
	projectID := uuid.New()
	f.tasks.On("FindFirstByMaxOrder", mock.Anything, projectID, model.StatusDone).Return(nil, nil)

	order, err := f.svc.AllocateOrder(context.Background(), projectID, model.StatusDone)

	require.NoError(t, err)
	assert.Equal(t, 0, order)
}

func TestAllocateOrder_StorageError(t *testing.T) {
	f := newTaskFixture()
	f.tasks.On("FindFirstByMaxOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := f.svc.AllocateOrder(context.Background(), uuid.New(), model.StatusDone)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestSetTaskStatusAndOrder_Success(t *testing.T) {
	// Arrange
	exporter := setupTestTracer(t)
	f := newTaskFixture()
	actorID, projectID, taskID := uuid.New(), uuid.New(), uuid.New()
	current := &model.Task{ID: taskID, ProjectID: projectID, Status: model.StatusTodo, Order: 1}
	reloaded := &model.Task{ID: taskID, ProjectID: projectID, Status: model.StatusDone, Order: 1}

	f.tasks.On("GetByID", mock.Anything, taskID).Return(current, nil).Once()
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleMember, nil)
	f.tasks.On("MoveTask", mock.Anything, taskID, model.StatusDone, intPtr(1)).Return(reloaded, nil)
	f.cache.On("Evict", mock.Anything, projectID).Return()
	f.tasks.On("GetByID", mock.Anything, taskID).Return(reloaded, nil).Once()

	// Act
	task, err := f.svc.SetTaskStatusAndOrder(context.Background(), actorID, taskID, "DONE", intPtr(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.Equal(t, 1, task.Order)
	f.assertExpectations(t)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "task.set_status_and_order", spans[0].Name)
	attrs := attributesToMap(spans[0].Attributes)
	assert.Equal(t, taskID.String(), attrs["task.id"])
	assert.Equal(t, "DONE", attrs["task.status"])
	assert.Equal(t, int64(1), attrs["task.order"])
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)
}

func TestSetTaskStatusAndOrder_InvalidStatusFailsBeforeAnyRead(t *testing.T) {
	// Arrange
	exporter := setupTestTracer(t)
	f := newTaskFixture()

	// Act
	_, err := f.svc.SetTaskStatusAndOrder(context.Background(), uuid.New(), uuid.New(), "BLOCKED", nil)

	// Assert
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid status", verr.Message)
	f.tasks.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestSetTaskStatusAndOrder_NegativeOrder(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.SetTaskStatusAndOrder(context.Background(), uuid.New(), uuid.New(), "TODO", intPtr(-1))

	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
	f.tasks.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSetTaskStatusAndOrder_NotFound(t *testing.T) {
	f := newTaskFixture()
	taskID := uuid.New()
	f.tasks.On("GetByID", mock.Anything, taskID).Return(nil, repository.ErrTaskNotFound)

	_, err := f.svc.SetTaskStatusAndOrder(context.Background(), uuid.New(), taskID, "DONE", nil)

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.True(t, service.IsNotFound(err))
}

func TestSetTaskStatusAndOrder_Forbidden(t *testing.T) {
	tests := []struct {
		name string
		role model.ProjectRole
	}{
		{name: "outsider", role: ""},
		{name: "viewer", role: model.RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newTaskFixture()
			actorID, projectID, taskID := uuid.New(), uuid.New(), uuid.New()
			f.tasks.On("GetByID", mock.Anything, taskID).Return(&model.Task{ID: taskID, ProjectID: projectID}, nil)
			f.members.On("GetRole", mock.Anything, projectID, actorID).Return(tt.role, nil)

			// Act
			_, err := f.svc.SetTaskStatusAndOrder(context.Background(), actorID, taskID, "DONE", intPtr(0))

			// Assert
			assert.ErrorIs(t, err, service.ErrForbidden)
			f.tasks.AssertNotCalled(t, "MoveTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSetTaskStatusAndOrder_WriteFailureKeepsCache(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID, taskID := uuid.New(), uuid.New(), uuid.New()
	f.tasks.On("GetByID", mock.Anything, taskID).Return(&model.Task{ID: taskID, ProjectID: projectID}, nil)
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleOwner, nil)
	f.tasks.On("MoveTask", mock.Anything, taskID, model.StatusReview, (*int)(nil)).Return(nil, assert.AnError)

	_, err := f.svc.SetTaskStatusAndOrder(context.Background(), actorID, taskID, "REVIEW", nil)

	assert.ErrorIs(t, err, assert.AnError)
	f.cache.AssertNotCalled(t, "Evict", mock.Anything, mock.Anything)
}

func TestCreateTask_AllocatesOrderAndNormalizes(t *testing.T) {
	// Arrange
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()
	blank := "   "

	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleMember, nil)
	f.tasks.On("FindFirstByMaxOrder", mock.Anything, projectID, model.StatusTodo).Return(&model.Task{Order: 5}, nil)
	f.tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.Title == "Write docs" &&
			task.Description == nil &&
			task.Status == model.StatusTodo &&
			task.Priority == model.PriorityMedium &&
			task.Order == 6 &&
			task.CreatorID == actorID
	})).Return(nil)
	f.cache.On("Evict", mock.Anything, projectID).Return()
	f.tasks.On("GetByID", mock.Anything, mock.Anything).Return(&model.Task{Title: "Write docs", Order: 6}, nil)

	// Act
	task, err := f.svc.CreateTask(context.Background(), actorID, service.CreateTaskInput{
		ProjectID:   projectID,
		Title:       "  Write docs ",
		Description: &blank,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 6, task.Order)
	f.assertExpectations(t)
}

func TestCreateTask_ExplicitOrderSkipsAllocator(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()

	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleAdmin, nil)
	f.tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.Order == 2 && task.Status == model.StatusReview && task.Priority == model.PriorityUrgent
	})).Return(nil)
	f.cache.On("Evict", mock.Anything, projectID).Return()
	f.tasks.On("GetByID", mock.Anything, mock.Anything).Return(&model.Task{Order: 2}, nil)

	_, err := f.svc.CreateTask(context.Background(), actorID, service.CreateTaskInput{
		ProjectID: projectID,
		Title:     "Review",
		Status:    "REVIEW",
		Priority:  "URGENT",
		Order:     intPtr(2),
	})

	require.NoError(t, err)
	f.tasks.AssertNotCalled(t, "FindFirstByMaxOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTask_Validation(t *testing.T) {
	projectID := uuid.New()
	tests := []struct {
		name  string
		input service.CreateTaskInput
	}{
		{name: "blank title", input: service.CreateTaskInput{ProjectID: projectID, Title: "  "}},
		{name: "missing project", input: service.CreateTaskInput{Title: "x"}},
		{name: "bad status", input: service.CreateTaskInput{ProjectID: projectID, Title: "x", Status: "BLOCKED"}},
		{name: "bad priority", input: service.CreateTaskInput{ProjectID: projectID, Title: "x", Priority: "critical"}},
		{name: "negative order", input: service.CreateTaskInput{ProjectID: projectID, Title: "x", Order: intPtr(-2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture()

			_, err := f.svc.CreateTask(context.Background(), uuid.New(), tt.input)

			var verr *service.ValidationError
			assert.ErrorAs(t, err, &verr)
			f.tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateTask_ViewerForbidden(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleViewer, nil)

	_, err := f.svc.CreateTask(context.Background(), actorID, service.CreateTaskInput{ProjectID: projectID, Title: "x"})

	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestCreateTask_AssigneeMustBeMember(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID, assigneeID := uuid.New(), uuid.New(), uuid.New()
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleOwner, nil)
	f.members.On("GetRole", mock.Anything, projectID, assigneeID).Return(model.ProjectRole(""), nil)

	_, err := f.svc.CreateTask(context.Background(), actorID, service.CreateTaskInput{
		ProjectID:  projectID,
		Title:      "x",
		AssigneeID: &assigneeID,
	})

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Assignee must be a member of the project", verr.Message)
}

func TestUpdateTask_LeavesStatusAndOrder(t *testing.T) {
	// Arrange
	f := newTaskFixture()
	actorID, projectID, taskID := uuid.New(), uuid.New(), uuid.New()
	current := &model.Task{
		ID:        taskID,
		ProjectID: projectID,
		Title:     "old",
		Status:    model.StatusReview,
		Priority:  model.PriorityLow,
		Order:     3,
	}
	title, priority, none := "new", "HIGH", ""

	f.tasks.On("GetByID", mock.Anything, taskID).Return(current, nil)
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleMember, nil)
	f.tasks.On("Update", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.Title == "new" &&
			task.Priority == model.PriorityHigh &&
			task.Status == model.StatusReview &&
			task.Order == 3 &&
			task.AssigneeID == nil
	})).Return(nil)
	f.cache.On("Evict", mock.Anything, projectID).Return()

	// Act
	_, err := f.svc.UpdateTask(context.Background(), actorID, taskID, service.UpdateTaskInput{
		Title:      &title,
		Priority:   &priority,
		AssigneeID: &none,
	})

	// Assert
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestDeleteTask_Permissions(t *testing.T) {
	creatorID := uuid.New()
	tests := []struct {
		name    string
		actorID uuid.UUID
		role    model.ProjectRole
		allowed bool
	}{
		{name: "creator", actorID: creatorID, role: model.RoleMember, allowed: true},
		{name: "admin", actorID: uuid.New(), role: model.RoleAdmin, allowed: true},
		{name: "other member", actorID: uuid.New(), role: model.RoleMember, allowed: false},
		{name: "outsider", actorID: uuid.New(), role: "", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture()
			projectID, taskID := uuid.New(), uuid.New()
			f.tasks.On("GetByID", mock.Anything, taskID).
				Return(&model.Task{ID: taskID, ProjectID: projectID, CreatorID: creatorID}, nil)
			f.members.On("GetRole", mock.Anything, projectID, tt.actorID).Return(tt.role, nil)
			if tt.allowed {
				f.tasks.On("Delete", mock.Anything, taskID).Return(nil)
				f.cache.On("Evict", mock.Anything, projectID).Return()
			}

			err := f.svc.DeleteTask(context.Background(), tt.actorID, taskID)

			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, service.ErrForbidden)
			}
			f.assertExpectations(t)
		})
	}
}

func TestListTasks_InvalidFilters(t *testing.T) {
	f := newTaskFixture()

	_, _, err := f.svc.ListTasks(context.Background(), uuid.New(), service.TaskQuery{Status: "foo"})
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = f.svc.ListTasks(context.Background(), uuid.New(), service.TaskQuery{Priority: "foo"})
	assert.ErrorAs(t, err, &verr)

	f.tasks.AssertNotCalled(t, "FindMany", mock.Anything, mock.Anything)
}

func TestListTasks_WithoutProjectScopesToActor(t *testing.T) {
	f := newTaskFixture()
	actorID := uuid.New()
	f.tasks.On("FindMany", mock.Anything, mock.MatchedBy(func(filter repository.TaskFilter) bool {
		return filter.MemberID != nil && *filter.MemberID == actorID &&
			filter.ProjectID == nil &&
			filter.Status == model.StatusDone &&
			filter.Limit == 20 && filter.Offset == 40
	})).Return([]model.Task{{Title: "a"}}, int64(41), nil)

	tasks, total, err := f.svc.ListTasks(context.Background(), actorID, service.TaskQuery{
		Status: "DONE",
		Limit:  20,
		Offset: 40,
	})

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int64(41), total)
}

func TestGetKanban_CacheMissProjectsAndStores(t *testing.T) {
	// Arrange
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()
	tasks := []model.Task{
		{ID: uuid.New(), ProjectID: projectID, Title: "b", Status: model.StatusTodo, Order: 1},
		{ID: uuid.New(), ProjectID: projectID, Title: "a", Status: model.StatusTodo, Order: 0},
		{ID: uuid.New(), ProjectID: projectID, Title: "c", Status: model.StatusDone, Order: 0},
	}
	expected := kanban.Project(projectID, tasks)

	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleViewer, nil)
	f.cache.On("Get", mock.Anything, projectID).Return(kanban.Board{}, false)
	f.cache.On("Generation", mock.Anything, projectID).Return(int64(4), true)
	f.tasks.On("FindMany", mock.Anything, repository.TaskFilter{ProjectID: &projectID}).Return(tasks, int64(3), nil)
	f.cache.On("Set", mock.Anything, expected, int64(4)).Return()

	// Act
	board, err := f.svc.GetKanban(context.Background(), actorID, projectID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, board)
	todo, _ := board.Column(model.StatusTodo)
	assert.Equal(t, "a", todo.Tasks[0].Title)
	f.assertExpectations(t)
}

func TestGetKanban_CacheHit(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()
	cached := kanban.Project(projectID, nil)

	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleMember, nil)
	f.cache.On("Get", mock.Anything, projectID).Return(cached, true)

	board, err := f.svc.GetKanban(context.Background(), actorID, projectID)

	require.NoError(t, err)
	assert.Equal(t, cached, board)
	f.tasks.AssertNotCalled(t, "FindMany", mock.Anything, mock.Anything)
}

func TestGetKanban_NonMember(t *testing.T) {
	f := newTaskFixture()
	actorID, projectID := uuid.New(), uuid.New()
	f.members.On("GetRole", mock.Anything, projectID, actorID).Return(model.ProjectRole(""), nil)

	_, err := f.svc.GetKanban(context.Background(), actorID, projectID)

	assert.True(t, errors.Is(err, service.ErrForbidden))
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetKanban_UnknownProject(t *testing.T) {
	f := newTaskFixture()
	projectID := uuid.New()
	f.members.On("GetRole", mock.Anything, projectID, mock.Anything).Return(model.ProjectRole(""), repository.ErrProjectNotFound)

	_, err := f.svc.GetKanban(context.Background(), uuid.New(), projectID)

	assert.True(t, service.IsNotFound(err))
}

func TestTaskService_NilCache(t *testing.T) {
	tasks, members := new(MockTaskStore), new(MockMemberStore)
	svc := service.NewTaskService(tasks, members, nil)
	actorID, projectID := uuid.New(), uuid.New()

	members.On("GetRole", mock.Anything, projectID, actorID).Return(model.RoleOwner, nil)
	tasks.On("FindMany", mock.Anything, mock.Anything).Return([]model.Task{}, int64(0), nil)

	board, err := svc.GetKanban(context.Background(), actorID, projectID)

	require.NoError(t, err)
	assert.Len(t, board.Columns, 4)
}
