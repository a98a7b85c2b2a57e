package main

import (
	"fmt"
	"log"
	"os"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/services"
)

// Seeds a demo account with one project so a fresh deployment has
// something to click around in. Safe to re-run.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	authSvc := services.NewAuthService(db, &cfg.JWT)
	user, err := authSvc.GetByEmail("demo@example.com")
	if err != nil {
		user, err = authSvc.Signup(&services.SignupRequest{
			Name:     "Demo User",
			Email:    "demo@example.com",
			Password: "demo-password",
		})
		if err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		fmt.Printf("Created demo user %s (id %d)\n", user.Email, user.ID)
	} else {
		fmt.Printf("Demo user already exists (id %d)\n", user.ID)
	}

	projects, err := services.NewProjectService(db, &cfg.Server).ListForUser(user.ID)
	if err != nil {
		log.Fatalf("Failed to list projects: %v", err)
	}
	if len(projects) > 0 {
		fmt.Printf("Demo user already has %d project(s), nothing to do\n", len(projects))
		return
	}

	project, err := services.NewProjectService(db, &cfg.Server).Create(&services.CreateProjectRequest{
		Name:        "Getting Started",
		Description: "A sample board with the default sections",
	}, user.ID)
	if err != nil {
		log.Fatalf("Failed to create demo project: %v", err)
	}
	fmt.Printf("Created demo project %q (id %d)\n", project.Name, project.ID)
}
