package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskflow/internal/middleware"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

// Error kinds carried in the "error" field of a failed response.
const (
	KindValidation   = "Validation Error"
	KindUnauthorized = "Unauthorized"
	KindForbidden    = "Forbidden"
	KindNotFound     = "Not Found"
	KindConflict     = "Conflict"
	KindInternal     = "Internal Server Error"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

func paginated(c *gin.Context, data interface{}, p pageParams, total int64) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Pagination: &Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
		},
	})
}

func fail(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: kind, Message: message})
}

// respondError maps a service or repository error onto the envelope.
// Anything unrecognised is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, KindValidation, verr.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, KindUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, KindForbidden, strings.TrimPrefix(err.Error(), service.ErrForbidden.Error()+": "))
	case service.IsNotFound(err):
		fail(c, http.StatusNotFound, KindNotFound, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrMemberExists):
		fail(c, http.StatusConflict, KindConflict, err.Error())
	default:
		_ = c.Error(err)
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		fail(c, http.StatusInternalServerError, KindInternal, "An unexpected error occurred")
	}
}

// bindError reports a request body that failed to bind or validate.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fail(c, http.StatusBadRequest, KindValidation, describeFieldError(verrs[0]))
		return
	}
	fail(c, http.StatusBadRequest, KindValidation, "Invalid request body")
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		fail(c, http.StatusUnauthorized, KindUnauthorized, "Not authenticated")
		return uuid.Nil, false
	}
	userID, isUUID := value.(uuid.UUID)
	if !isUUID {
		fail(c, http.StatusUnauthorized, KindUnauthorized, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, KindValidation, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads page and limit, clamping page to at least 1 and limit to
// 1..100. Missing or unparsable values take the defaults.
func pagination(c *gin.Context) pageParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	switch {
	case err != nil:
		limit = defaultPageLimit
	case limit < 1:
		limit = 1
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return pageParams{Page: page, Limit: limit}
}
