package handler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskflow/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the enum tags used in request bindings to gin's
// validator: taskstatus, taskpriority and projectrole.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, isValidator := binding.Validator.Engine().(*validator.Validate)
		if !isValidator {
			return
		}
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return model.TaskStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
			return model.TaskPriority(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("projectrole", func(fl validator.FieldLevel) bool {
			return model.ProjectRole(fl.Field().String()).Valid()
		})
	})
}

func describeFieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "taskstatus":
		return fmt.Sprintf("%s must be one of %s", field, joinValues(model.Statuses))
	case "taskpriority":
		return fmt.Sprintf("%s must be one of %s", field, joinValues(model.Priorities))
	case "projectrole":
		return fmt.Sprintf("%s must be one of %s", field, joinValues(model.ProjectRoles))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
