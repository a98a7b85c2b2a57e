package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/utils"
	"gorm.io/gorm"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUser      = "current_user"
)

// AuthRequired validates the bearer token and resolves the acting user from
// the database. A syntactically valid token whose user no longer exists
// yields 404, not 401.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to resolve user"})
			}
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUser, &user)

		c.Next()
	}
}

// GetUserID returns the acting user's id from the request context.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUserEmail returns the acting user's email from the request context.
func GetUserEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextUserEmail); exists {
		return email.(string)
	}
	return ""
}

// GetUser returns the resolved user record from the request context.
func GetUser(c *gin.Context) *models.User {
	if u, exists := c.Get(ContextUser); exists {
		return u.(*models.User)
	}
	return nil
}
