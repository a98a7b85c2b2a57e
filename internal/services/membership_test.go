package services

import (
	"net/http"
	"testing"

	"github.com/openkanban/taskboard/internal/models"
)

func TestCheckMembership(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "mallory")
	project, _ := boardFixture(t, db, alice, nil)
	svc := NewMembershipService(db)

	if _, err := svc.CheckMembership(alice.ID, project.ID); err != nil {
		t.Fatalf("member check failed: %v", err)
	}

	_, err := svc.CheckMembership(outsider.ID, project.ID)
	assertAppError(t, err, http.StatusForbidden)

	_, err = svc.CheckMembership(alice.ID, 99999)
	assertAppError(t, err, http.StatusNotFound)
}

func TestResolveProjectForTask_WalksSection(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, sections := boardFixture(t, db, alice, nil)
	svc := NewMembershipService(db)

	// a task without the denormalized project id still resolves via its section
	task := models.Task{Name: "legacy", SectionID: sections[0].ID}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, projectID, err := svc.ResolveProjectForTask(task.ID)
	if err != nil {
		t.Fatalf("ResolveProjectForTask failed: %v", err)
	}
	if projectID != project.ID {
		t.Errorf("resolved project %d, expected %d", projectID, project.ID)
	}

	_, _, err = svc.ResolveProjectForTask(99999)
	assertAppError(t, err, http.StatusNotFound)
}
