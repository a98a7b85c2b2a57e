package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/openkanban/taskboard/internal/models"
)

func TestActivityLog(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "mallory")
	_, sections := boardFixture(t, db, alice, nil)
	svc := NewActivityService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}

	svc.Record("task", task.ID, "updated", alice.ID, map[string]interface{}{"field": "name"})

	activities, err := svc.ListByTask(alice.ID, task.ID)
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	// task Create already recorded one entry
	if len(activities) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(activities))
	}
	// newest first
	if activities[0].Action != "updated" || activities[1].Action != "created" {
		t.Errorf("order wrong: %q then %q", activities[0].Action, activities[1].Action)
	}
	if activities[0].Actor == nil || activities[0].Actor.ID != alice.ID {
		t.Error("actor not resolved")
	}

	_, err = svc.ListByTask(outsider.ID, task.ID)
	assertAppError(t, err, http.StatusForbidden)
}

func TestActivityRecord_NeverFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db)

	// unserializable metadata is dropped, not fatal
	svc.Record("task", 1, "noop", 1, map[string]interface{}{"bad": make(chan int)})

	var count int64
	db.Model(&models.Activity{}).Count(&count)
	if count != 1 {
		t.Errorf("expected the entry recorded without metadata, got %d rows", count)
	}
}

func TestActivityCleanup(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db)

	old := models.Activity{EntityType: "task", EntityID: 1, Action: "created", ActorID: 1}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -120))

	recent := models.Activity{EntityType: "task", EntityID: 1, Action: "updated", ActorID: 1}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	svc.cleanup(90)

	var count int64
	db.Model(&models.Activity{}).Count(&count)
	if count != 1 {
		t.Errorf("expected only the recent entry to survive, got %d", count)
	}
}
