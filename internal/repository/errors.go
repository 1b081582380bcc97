package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrMemberNotFound is returned when a user is not a member of a project
	ErrMemberNotFound = errors.New("member not found")

	// ErrMemberExists is returned when adding a user who already belongs to a project
	ErrMemberExists = errors.New("user is already a member of this project")
)
