package handler

import (
	"time"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
)

type UserSummary struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

// ProjectSummary is the project a task belongs to, as embedded in task
// responses.
type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	ProjectID   string          `json:"projectId"`
	Project     *ProjectSummary `json:"project,omitempty"`
	AssigneeID  *string         `json:"assigneeId"`
	Assignee    *UserSummary    `json:"assignee"`
	CreatorID   string          `json:"creatorId"`
	Creator     *UserSummary    `json:"creator"`
	DueDate     *time.Time      `json:"dueDate"`
	Order       int             `json:"order"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProjectResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	OwnerID     string           `json:"ownerId"`
	Owner       *UserSummary     `json:"owner,omitempty"`
	Members     []MemberResponse `json:"members,omitempty"`
	TaskCount   int64            `json:"taskCount"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type MemberResponse struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Role      string       `json:"role"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// KanbanResponse maps every status name to its column, in display order.
type KanbanResponse map[string][]TaskResponse

func toUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID.String(), Name: u.Name, Email: u.Email, Image: u.Image}
}

func toTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ProjectID:   t.ProjectID.String(),
		Assignee:    toUserSummary(t.Assignee),
		CreatorID:   t.CreatorID.String(),
		Creator:     toUserSummary(t.Creator),
		DueDate:     t.DueDate,
		Order:       t.Order,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Project != nil {
		resp.Project = &ProjectSummary{ID: t.Project.ID.String(), Name: t.Project.Name}
	}
	if t.AssigneeID != nil {
		id := t.AssigneeID.String()
		resp.AssigneeID = &id
	}
	return resp
}

func toTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = toTaskResponse(&tasks[i])
	}
	return out
}

func toKanbanResponse(board kanban.Board) KanbanResponse {
	resp := make(KanbanResponse, len(model.Statuses))
	for _, status := range model.Statuses {
		resp[string(status)] = []TaskResponse{}
	}
	for _, col := range board.Columns {
		resp[string(col.Status)] = toTaskResponses(col.Tasks)
	}
	return resp
}

func toMemberResponse(m *model.ProjectMember) MemberResponse {
	return MemberResponse{
		ID:        m.ID.String(),
		UserID:    m.UserID.String(),
		Role:      string(m.Role),
		User:      toUserSummary(m.User),
		CreatedAt: m.CreatedAt,
	}
}

func toMemberResponses(members []model.ProjectMember) []MemberResponse {
	out := make([]MemberResponse, len(members))
	for i := range members {
		out[i] = toMemberResponse(&members[i])
	}
	return out
}

func toProjectResponse(p *model.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID.String(),
		Owner:       toUserSummary(p.Owner),
		TaskCount:   p.TaskCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if len(p.Members) > 0 {
		resp.Members = toMemberResponses(p.Members)
	}
	return resp
}
