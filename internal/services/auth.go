package services

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/utils"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`.+@.+\..+`)

// IsEmailShaped reports whether s looks like an email address. Assignee
// notification and invitations share this check.
func IsEmailShaped(s string) bool {
	return emailRegex.MatchString(s)
}

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type SignupRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	UserPhoto string `json:"user_photo"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Signup validates and creates a new account. A missing photo gets a
// generated avatar URL derived from the name.
func (s *AuthService) Signup(req *SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, response.NewBadRequest("name must be at least 2 characters long")
	}
	if !IsEmailShaped(req.Email) {
		return nil, response.NewBadRequest("invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, response.NewBadRequest("password must be at least 6 characters long")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewBadRequest("email is already in use")
	}

	photo := req.UserPhoto
	if photo == "" {
		photo = defaultAvatarURL(name)
	} else if !isValidImageURL(photo) {
		return nil, response.NewBadRequest("invalid photo URL: must be a .jpg, .jpeg or .png link")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		UserPhoto:    photo,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates by email and password and issues a bearer token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	if !IsEmailShaped(req.Email) {
		return nil, response.NewBadRequest("invalid email format")
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid email or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return nil, response.NewUnauthorized("invalid email or password")
	}

	expireHours := s.jwtConfig.ExpireHour
	if expireHours <= 0 {
		expireHours = 168
	}

	token, err := utils.GenerateToken(user.ID, user.Email, expireHours)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:    token,
		User:     &user,
		ExpireAt: time.Now().Add(time.Duration(expireHours) * time.Hour),
	}, nil
}

// GetByID returns a user by id.
func (s *AuthService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns a user by exact email.
func (s *AuthService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// Search finds up to 10 users whose name or email contains the term,
// case-insensitive.
func (s *AuthService) Search(term string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(term) + "%"
	err := s.db.
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Limit(10).
		Find(&users).Error
	return users, err
}

// Count returns the number of registered accounts.
func (s *AuthService) Count() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func defaultAvatarURL(name string) string {
	return fmt.Sprintf("https://avatar.iran.liara.run/username?username=%s", url.QueryEscape(name))
}

func isValidImageURL(photoURL string) bool {
	lower := strings.ToLower(photoURL)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png")
}
