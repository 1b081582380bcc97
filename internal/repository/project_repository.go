package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts the project and its owner's OWNER membership in one
// transaction.
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Members", "Tasks").Create(project).Error; err != nil {
			return err
		}
		owner := model.ProjectMember{
			ProjectID: project.ID,
			UserID:    project.OwnerID,
			Role:      model.RoleOwner,
		}
		return tx.Omit("User").Create(&owner).Error
	})
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.User").
		Where("id = ?", id).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser returns the projects userID owns or belongs to, most recently
// updated first, with their task counts.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Project, int64, error) {
	visible := func(db *gorm.DB) *gorm.DB {
		members := r.db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
		return db.Where("projects.owner_id = ? OR projects.id IN (?)", userID, members)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Project{}).Scopes(visible).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Select("projects.*, (SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count").
		Scopes(visible).
		Preload("Owner").
		Order("projects.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update writes the editable project fields.
func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).
		Model(project).
		Select("Name", "Description", "UpdatedAt").
		Updates(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes the project; members and tasks go with it through the
// foreign key cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

