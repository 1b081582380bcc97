package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

type ProjectService interface {
	CreateProject(ctx context.Context, actorID uuid.UUID, in service.ProjectInput) (*model.Project, error)
	ListProjects(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]model.Project, int64, error)
	GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*model.Project, error)
	UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, in service.ProjectInput) (*model.Project, error)
	DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error
	ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]model.ProjectMember, error)
	AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*model.ProjectMember, error)
	UpdateMemberRole(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*model.ProjectMember, error)
	RemoveMember(ctx context.Context, actorID, projectID, userID uuid.UUID) error
}

var _ ProjectService = (*service.ProjectService)(nil)

type ProjectHandler struct {
	projects ProjectService
}

func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

// Create godoc
// @Summary      Create a project
// @Description  The caller becomes its owner.
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body CreateProjectRequest true "Project"
// @Success      201 {object} Response{data=ProjectResponse}
// @Failure      400 {object} Response
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), actorID, service.ProjectInput{
		Name:        &req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toProjectResponse(project), "Project created")
}

// GetAll godoc
// @Summary      List the caller's projects
// @Description  Projects the caller owns or belongs to, most recently updated first.
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} Response{data=[]ProjectResponse}
// @Router       /projects [get]
func (h *ProjectHandler) GetAll(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := pagination(c)
	projects, total, err := h.projects.ListProjects(c.Request.Context(), actorID, page.Limit, page.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = toProjectResponse(&projects[i])
	}
	paginated(c, response, page, total)
}

// GetByID godoc
// @Summary      Get a project
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} Response{data=ProjectResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), actorID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toProjectResponse(project), "")
}

// Update godoc
// @Summary      Update a project
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Project ID"
// @Param        request body UpdateProjectRequest true "Changes"
// @Success      200 {object} Response{data=ProjectResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), actorID, projectID, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toProjectResponse(project), "Project updated")
}

// Delete godoc
// @Summary      Delete a project
// @Description  Owner only. Members and tasks are removed with it.
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} Response
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), actorID, projectID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Project deleted")
}
