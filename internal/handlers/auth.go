package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{authService: services.NewAuthService(db, jwtCfg)}
}

// Signup creates a new account
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Signup(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login verifies credentials and returns a signed token
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthorized(c, "not authenticated")
		return
	}
	response.Success(c, user)
}

// Count returns the total number of registered users
// GET /api/auth/count
func (h *AuthHandler) Count(c *gin.Context) {
	count, err := h.authService.Count()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// Search finds users whose name or email matches the search term
// GET /api/auth/search?search=term
func (h *AuthHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("search"))
	if len(term) < 2 {
		response.BadRequest(c, "search term must be at least 2 characters")
		return
	}

	users, err := h.authService.Search(term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// ByEmail looks a user up by exact email
// GET /api/auth/by-email?email=addr
func (h *AuthHandler) ByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}

	user, err := h.authService.GetByEmail(email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
