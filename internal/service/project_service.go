package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

// UserLookup resolves users added to projects.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type ProjectService struct {
	projects ProjectStore
	members  MemberStore
	users    UserLookup
	cache    BoardCache
}

func NewProjectService(projects ProjectStore, members MemberStore, users UserLookup, cache BoardCache) *ProjectService {
	return &ProjectService{projects: projects, members: members, users: users, cache: cache}
}

type ProjectInput struct {
	Name        *string
	Description *string
}

func (s *ProjectService) CreateProject(ctx context.Context, actorID uuid.UUID, in ProjectInput) (*model.Project, error) {
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, invalid("Project name is required")
	}

	project := &model.Project{
		Name:        name,
		Description: normalizeText(in.Description),
		OwnerID:     actorID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.projects.GetByID(ctx, project.ID)
}

func (s *ProjectService) ListProjects(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]model.Project, int64, error) {
	projects, total, err := s.projects.ListForUser(ctx, actorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return projects, total, nil
}

func (s *ProjectService) GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*model.Project, error) {
	if _, err := s.requireRole(ctx, projectID, actorID, func(r model.ProjectRole) bool { return r != "" }); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, projectID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, in ProjectInput) (*model.Project, error) {
	if _, err := s.requireRole(ctx, projectID, actorID, model.ProjectRole.CanManage); err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("Project name is required")
		}
		project.Name = name
	}
	if in.Description != nil {
		project.Description = normalizeText(in.Description)
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, projectID)
}

// DeleteProject removes the project with its members and tasks. Only the
// owner may do this.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	isOwner := func(r model.ProjectRole) bool { return r == model.RoleOwner }
	if _, err := s.requireRole(ctx, projectID, actorID, isOwner); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Evict(ctx, projectID)
	}
	return nil
}

func (s *ProjectService) ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]model.ProjectMember, error) {
	if _, err := s.requireRole(ctx, projectID, actorID, func(r model.ProjectRole) bool { return r != "" }); err != nil {
		return nil, err
	}
	return s.members.List(ctx, projectID)
}

// AddMember grants userID access to the project. role defaults to MEMBER.
func (s *ProjectService) AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*model.ProjectMember, error) {
	newRole := model.RoleMember
	if role != "" {
		r, err := model.ParseProjectRole(role)
		if err != nil {
			return nil, invalid("Invalid role")
		}
		newRole = r
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, projectID, actorID, model.ProjectRole.CanManage); err != nil {
		return nil, err
	}
	if newRole == model.RoleOwner && project.OwnerID != userID {
		return nil, forbidden("the owner role cannot be granted")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	member := &model.ProjectMember{ProjectID: projectID, UserID: userID, Role: newRole}
	if err := s.members.Add(ctx, member); err != nil {
		return nil, err
	}
	return s.members.Get(ctx, projectID, userID)
}

func (s *ProjectService) UpdateMemberRole(ctx context.Context, actorID, projectID, userID uuid.UUID, role string) (*model.ProjectMember, error) {
	newRole, err := model.ParseProjectRole(role)
	if err != nil {
		return nil, invalid("A valid role is required")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, projectID, actorID, model.ProjectRole.CanManage); err != nil {
		return nil, err
	}
	if _, err := s.members.Get(ctx, projectID, userID); err != nil {
		return nil, err
	}
	if newRole == model.RoleOwner && project.OwnerID != userID {
		return nil, forbidden("the owner cannot be changed")
	}

	if err := s.members.UpdateRole(ctx, projectID, userID, newRole); err != nil {
		return nil, err
	}
	return s.members.Get(ctx, projectID, userID)
}

func (s *ProjectService) RemoveMember(ctx context.Context, actorID, projectID, userID uuid.UUID) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if _, err := s.requireRole(ctx, projectID, actorID, model.ProjectRole.CanManage); err != nil {
		return err
	}
	if _, err := s.members.Get(ctx, projectID, userID); err != nil {
		return err
	}
	if project.OwnerID == userID {
		return forbidden("the owner cannot be removed")
	}
	return s.members.Remove(ctx, projectID, userID)
}

func (s *ProjectService) requireRole(ctx context.Context, projectID, actorID uuid.UUID, allowed func(model.ProjectRole) bool) (model.ProjectRole, error) {
	role, err := s.members.GetRole(ctx, projectID, actorID)
	if err != nil {
		return "", err
	}
	if !allowed(role) {
		if role == "" {
			return "", forbidden("you do not have access to this project")
		}
		return "", forbidden("you do not have permission to manage this project")
	}
	return role, nil
}
