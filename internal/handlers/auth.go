package handlers

import (
	"errors"
	"net/http"

	"dreambid/internal/activity"
	"dreambid/internal/auth"
	"dreambid/internal/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration and sign-in
type AuthHandler struct {
	auth   *auth.Service
	events ActivityLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, events ActivityLogger) *AuthHandler {
	return &AuthHandler{auth: authService, events: events}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		serverError(c, "Failed to register user", err)
		return
	}

	ip, ua := clientInfo(c)
	h.events.Log(activity.UserRegistered(user.ID, user.Email, ip, ua))

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ip, ua := clientInfo(c)
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var userID *uint
		if user != nil {
			id := user.ID
			userID = &id
		}
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.events.Log(activity.LoginFailed(userID, req.Email, "invalid_credentials", ip, ua))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case errors.Is(err, auth.ErrAccountInactive):
			h.events.Log(activity.LoginFailed(userID, req.Email, "account_inactive", ip, ua))
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		default:
			serverError(c, "Failed to log in", err)
		}
		return
	}

	h.events.Log(activity.UserLogin(user.ID, user.Email, ip, ua))

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Verify handles GET /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this only
// records the event.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	ip, ua := clientInfo(c)
	h.events.Log(activity.UserLogout(user.ID, ip, ua))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
