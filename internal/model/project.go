package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Owner   *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`

	// TaskCount is filled by list queries; it is not a column.
	TaskCount int64 `gorm:"->;-:migration" json:"taskCount"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user" json:"projectId"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user;index" json:"userId"`
	Role      ProjectRole `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type ProjectRole string

const (
	RoleOwner  ProjectRole = "OWNER"
	RoleAdmin  ProjectRole = "ADMIN"
	RoleMember ProjectRole = "MEMBER"
	RoleViewer ProjectRole = "VIEWER"
)

var ProjectRoles = []ProjectRole{RoleOwner, RoleAdmin, RoleMember, RoleViewer}

func ParseProjectRole(s string) (ProjectRole, error) {
	for _, r := range ProjectRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r ProjectRole) Valid() bool {
	_, err := ParseProjectRole(string(r))
	return err == nil
}

// CanManage reports whether the role may edit the project and its membership.
func (r ProjectRole) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanEditTasks reports whether the role may create, update and move tasks.
func (r ProjectRole) CanEditTasks() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}
