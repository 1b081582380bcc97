package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

type UserHandler struct {
	repo      repository.UserRepositoryInterface
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserHandler(repo repository.UserRepositoryInterface, jwtSecret string, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *model.User) UserResponse {
	name := ""
	if u.Name != nil {
		name = *u.Name
	}
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      name,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
	}
}

// Register godoc
// @Summary      Register a new user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} Response{data=AuthResponse}
// @Failure      400 {object} Response
// @Failure      409 {object} Response
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing != nil {
		fail(c, http.StatusConflict, KindConflict, "User with this email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Email:          req.Email,
		HashedPassword: hash,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = &name
	}

	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	h.issueToken(c, http.StatusCreated, user, "Registration complete")
}

// Login godoc
// @Summary      Log in and receive a bearer token
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} Response{data=AuthResponse}
// @Failure      401 {object} Response
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		respondError(c, service.ErrInvalidCredentials)
		return
	}

	h.issueToken(c, http.StatusOK, user, "")
}

func (h *UserHandler) issueToken(c *gin.Context, status int, user *model.User, message string) {
	token, err := auth.GenerateToken(user.ID.String(), h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, status, AuthResponse{Token: token, User: toUserResponse(user)}, message)
}
