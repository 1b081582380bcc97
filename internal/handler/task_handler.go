package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
	"taskflow/internal/service"
)

// TaskService is the task use-case surface the handler depends on.
type TaskService interface {
	CreateTask(ctx context.Context, actorID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, actorID uuid.UUID, q service.TaskQuery) ([]model.Task, int64, error)
	UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error)
	DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error
	SetTaskStatusAndOrder(ctx context.Context, actorID, taskID uuid.UUID, status string, order *int) (*model.Task, error)
	GetKanban(ctx context.Context, actorID, projectID uuid.UUID) (kanban.Board, error)
}

var _ TaskService = (*service.TaskService)(nil)

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	ProjectID   string     `json:"projectId" binding:"required,uuid"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,taskstatus"`
	Priority    string     `json:"priority" binding:"omitempty,taskpriority"`
	AssigneeID  *string    `json:"assigneeId" binding:"omitempty,uuid"`
	DueDate     *time.Time `json:"dueDate"`
	Order       *int       `json:"order" binding:"omitempty,min=0"`
}

// UpdateTaskRequest edits task details. An empty assigneeId or dueDate
// clears the field.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	Priority    *string `json:"priority" binding:"omitempty,taskpriority"`
	AssigneeID  *string `json:"assigneeId"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskStatusRequest is the body of a drag-and-drop write.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Order  *int   `json:"order"`
}

// Create godoc
// @Summary      Create a task
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body CreateTaskRequest true "Task"
// @Success      201 {object} Response{data=TaskResponse}
// @Failure      400,403,404 {object} Response
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		fail(c, http.StatusBadRequest, KindValidation, "Invalid project ID format")
		return
	}
	in := service.CreateTaskInput{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Order:       req.Order,
	}
	if req.AssigneeID != nil {
		assignee, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			fail(c, http.StatusBadRequest, KindValidation, "Invalid assignee ID format")
			return
		}
		in.AssigneeID = &assignee
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), actorID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toTaskResponse(task), "Task created")
}

// List godoc
// @Summary      List tasks visible to the caller
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        projectId  query string false "Project ID"
// @Param        status     query string false "Status"
// @Param        priority   query string false "Priority"
// @Param        assigneeId query string false "Assignee ID"
// @Param        page       query int    false "Page"
// @Param        limit      query int    false "Page size"
// @Success      200 {object} Response{data=[]TaskResponse}
// @Failure      400,403 {object} Response
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	q := service.TaskQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	if raw := c.Query("projectId"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, KindValidation, "Invalid project ID format")
			return
		}
		q.ProjectID = &projectID
	}
	if raw := c.Query("assigneeId"); raw != "" {
		assigneeID, err := uuid.Parse(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, KindValidation, "Invalid assignee ID format")
			return
		}
		q.AssigneeID = &assigneeID
	}

	h.list(c, actorID, q)
}

// ListByProject godoc
// @Summary      List a project's tasks
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id       path  string true  "Project ID"
// @Param        status   query string false "Status"
// @Param        priority query string false "Priority"
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size"
// @Success      200 {object} Response{data=[]TaskResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id}/tasks [get]
func (h *TaskHandler) ListByProject(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	h.list(c, actorID, service.TaskQuery{
		ProjectID: &projectID,
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
	})
}

func (h *TaskHandler) list(c *gin.Context, actorID uuid.UUID, q service.TaskQuery) {
	page := pagination(c)
	q.Limit = page.Limit
	q.Offset = page.Offset()

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), actorID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, toTaskResponses(tasks), page, total)
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} Response{data=TaskResponse}
// @Failure      400,403,404 {object} Response
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), actorID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toTaskResponse(task), "")
}

// Update godoc
// @Summary      Update task details
// @Description  Status and order are changed through PUT /tasks/{id}/status.
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string            true "Task ID"
// @Param        request body UpdateTaskRequest true "Changes"
// @Success      200 {object} Response{data=TaskResponse}
// @Failure      400,403,404 {object} Response
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id", "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), actorID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toTaskResponse(task), "Task updated")
}

// Delete godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} Response
// @Failure      400,403,404 {object} Response
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), actorID, taskID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Task deleted")
}

// UpdateStatus godoc
// @Summary      Move a task to a status and position
// @Description  Places the task at index order of the target column and renumbers the affected columns. Without order the task keeps its index, or goes to the end when the status changes.
// @Tags         Kanban
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Task ID"
// @Param        request body UpdateTaskStatusRequest true "Target"
// @Success      200 {object} Response{data=TaskResponse}
// @Failure      400,403,404 {object} Response
// @Router       /tasks/{id}/status [put]
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id", "task")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.tasks.SetTaskStatusAndOrder(c.Request.Context(), actorID, taskID, req.Status, req.Order)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toTaskResponse(task), "Task status updated")
}

// Kanban godoc
// @Summary      Get a project's board
// @Description  Tasks grouped by status, each column sorted by order.
// @Tags         Kanban
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} Response{data=KanbanResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id}/kanban [get]
func (h *TaskHandler) Kanban(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	board, err := h.tasks.GetKanban(c.Request.Context(), actorID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toKanbanResponse(board), "")
}
