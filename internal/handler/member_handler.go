package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MemberHandler serves /projects/:id/members.
type MemberHandler struct {
	projects ProjectService
}

func NewMemberHandler(projects ProjectService) *MemberHandler {
	return &MemberHandler{projects: projects}
}

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Role   string `json:"role" binding:"omitempty,projectrole"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required,projectrole"`
}

// List godoc
// @Summary      List project members
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} Response{data=[]MemberResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id}/members [get]
func (h *MemberHandler) List(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	members, err := h.projects.ListMembers(c.Request.Context(), actorID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toMemberResponses(members), "")
}

// Add godoc
// @Summary      Add a member
// @Description  Owner or admin only. The role defaults to MEMBER.
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string           true "Project ID"
// @Param        request body AddMemberRequest true "Member"
// @Success      201 {object} Response{data=MemberResponse}
// @Failure      400,403,404,409 {object} Response
// @Router       /projects/{id}/members [post]
func (h *MemberHandler) Add(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		fail(c, http.StatusBadRequest, KindValidation, "Invalid user ID format")
		return
	}

	member, err := h.projects.AddMember(c.Request.Context(), actorID, projectID, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toMemberResponse(member), "Member added")
}

// UpdateRole godoc
// @Summary      Change a member's role
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Project ID"
// @Param        userId  path string              true "User ID"
// @Param        request body UpdateMemberRequest true "Role"
// @Success      200 {object} Response{data=MemberResponse}
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id}/members/{userId} [put]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId", "user")
	if !ok {
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	member, err := h.projects.UpdateMemberRole(c.Request.Context(), actorID, projectID, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toMemberResponse(member), "Member role updated")
}

// Remove godoc
// @Summary      Remove a member
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Param        id     path string true "Project ID"
// @Param        userId path string true "User ID"
// @Success      200 {object} Response
// @Failure      400,403,404 {object} Response
// @Router       /projects/{id}/members/{userId} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.projects.RemoveMember(c.Request.Context(), actorID, projectID, userID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Member removed")
}
