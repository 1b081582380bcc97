package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/auth"
	"taskflow/internal/handler"
	"taskflow/internal/model"
)

const testSecret = "test-secret"

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

// envelope mirrors handler.Response with the payload left raw.
type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	Pagination *handler.Pagination `json:"pagination"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func setupUserTest() (*gin.Engine, *MockUserRepository) {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()
	r := gin.New()
	mockRepo := new(MockUserRepository)
	userHandler := handler.NewUserHandler(mockRepo, testSecret, time.Hour)

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	return r, mockRepo
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupUserTest()
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "test@example.com" &&
			bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("password123")) == nil
	})).Return(nil)

	reqBody := handler.RegisterRequest{
		Name:     "Test User",
		Email:    "Test@Example.com",
		Password: "password123",
	}

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/register", reqBody))

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	env := decodeEnvelope(t, resp, &response)
	assert.True(t, env.Success)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, reqBody.Name, response.User.Name)
	assert.Equal(t, "test@example.com", response.User.Email)

	subject, err := auth.ParseToken(response.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, subject)

	mockRepo.AssertExpectations(t)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	// Arrange
	router, mockRepo := setupUserTest()
	existingUser := &model.User{
		ID:             uuid.New(),
		Email:          "existing@example.com",
		HashedPassword: "hashed_password",
	}
	mockRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(existingUser, nil)

	reqBody := handler.RegisterRequest{
		Email:    "existing@example.com",
		Password: "password123",
	}

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/register", reqBody))

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decodeEnvelope(t, resp, nil)
	assert.False(t, env.Success)
	assert.Equal(t, handler.KindConflict, env.Error)
	assert.Equal(t, "User with this email already exists", env.Message)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ShortPassword(t *testing.T) {
	router, mockRepo := setupUserTest()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/register", handler.RegisterRequest{
		Email:    "test@example.com",
		Password: "short",
	}))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, handler.KindValidation, env.Error)
	assert.Equal(t, "password must be at least 8", env.Message)
	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestRegister_RepositoryFailure(t *testing.T) {
	router, mockRepo := setupUserTest()
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("connection reset"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/register", handler.RegisterRequest{
		Email:    "test@example.com",
		Password: "password123",
	}))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, handler.KindInternal, env.Error)
	assert.NotContains(t, env.Message, "connection reset")
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupUserTest()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	name := "Test User"
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Name:           &name,
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	reqBody := handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	}

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/login", reqBody))

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	decodeEnvelope(t, resp, &response)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, name, response.User.Name)
	assert.Equal(t, testUser.Email, response.User.Email)
	assert.Equal(t, testUser.ID.String(), response.User.ID)

	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Arrange
	router, mockRepo := setupUserTest()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	reqBody := handler.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong_password",
	}

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/login", reqBody))

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, handler.KindUnauthorized, env.Error)
	assert.Equal(t, "Invalid credentials", env.Message)

	mockRepo.AssertExpectations(t)
}

func TestLogin_UserNotFound(t *testing.T) {
	// Arrange
	router, mockRepo := setupUserTest()
	mockRepo.On("FindByEmail", mock.Anything, "nonexistent@example.com").Return(nil, nil)

	reqBody := handler.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "password123",
	}

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest("POST", "/login", reqBody))

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "Invalid credentials", env.Message)

	mockRepo.AssertExpectations(t)
}
