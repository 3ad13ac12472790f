package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/middleware"
	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/services"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
	"github.com/charlesng35/taskhub/pkg/metrics"
	"github.com/charlesng35/taskhub/pkg/response"
)

// AuthHandler exposes registration, login and the current-user endpoint.
type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and immediately issues a token.
func (h *AuthHandler) Register(c *gin.Context) {
	req, ok := bindAndValidate[registerRequest](c)
	if !ok {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register_failure").Inc()
		response.Error(c, err)
		return
	}

	token, err := h.jwt.Issue(user.ID, user.Email)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "failed to issue token"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("register_success").Inc()
	response.Success(c, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login verifies credentials and issues a token. Failures stay opaque.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindAndValidate[loginRequest](c)
	if !ok {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login_failure").Inc()
		response.Error(c, err)
		return
	}

	token, err := h.jwt.Issue(user.ID, user.Email)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "failed to issue token"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("login_success").Inc()
	response.Success(c, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
