package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecret("test-secret-for-service-testing")
}

// newTestDB opens a throwaway sqlite database under t.TempDir with the full
// schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Section{},
		&models.Task{},
		&models.Attachment{},
		&models.Comment{},
		&models.Activity{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

var testUserSeq int

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	testUserSeq++
	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, testUserSeq),
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{FrontendURL: "http://localhost:3000"}
}

func newTestUploadService(t *testing.T) *UploadService {
	t.Helper()

	uploads, err := NewUploadService(&config.UploadConfig{
		Dir:     filepath.Join(t.TempDir(), "uploads"),
		BaseURL: "/uploads",
	})
	if err != nil {
		t.Fatalf("failed to create upload service: %v", err)
	}
	return uploads
}
