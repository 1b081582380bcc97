package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectMemberRepository struct {
	db *gorm.DB
}

func NewProjectMemberRepository(db *gorm.DB) *ProjectMemberRepository {
	return &ProjectMemberRepository{db: db}
}

// GetRole returns the user's role in the project, or an empty role if the
// user has no access. The project owner is always OWNER.
func (r *ProjectMemberRepository) GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectRole, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Select("id", "owner_id").
		Where("id = ?", projectID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrProjectNotFound
	}
	if err != nil {
		return "", err
	}
	if project.OwnerID == userID {
		return model.RoleOwner, nil
	}

	var member model.ProjectMember
	err = r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// CheckProjectMember reports whether the user owns or belongs to the project.
func (r *ProjectMemberRepository) CheckProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	role, err := r.GetRole(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

func (r *ProjectMemberRepository) List(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	var members []model.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *ProjectMemberRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectMember, error) {
	var member model.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Add inserts a membership. The existence check and insert share a
// transaction so a concurrent add of the same user reports ErrMemberExists.
func (r *ProjectMemberRepository) Add(ctx context.Context, member *model.ProjectMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", member.ProjectID, member.UserID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrMemberExists
		}
		return tx.Omit("User").Create(member).Error
	})
}

func (r *ProjectMemberRepository) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error {
	if !role.Valid() {
		return model.ErrInvalidRole
	}
	result := r.db.WithContext(ctx).
		Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *ProjectMemberRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
