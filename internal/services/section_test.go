package services

import (
	"net/http"
	"testing"

	"github.com/openkanban/taskboard/internal/models"
)

func TestCreateSection_AppendsAtEnd(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, _ := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	if _, err := svc.Create(&CreateSectionRequest{Name: "Review", ProjectID: project.ID}, alice.ID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sections, err := svc.List(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sections) != 4 || sections[3].Name != "Review" {
		t.Errorf("expected Review appended last, got %d sections", len(sections))
	}

	// new section gets status derivation like any other
	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[3].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}
	if task.Status != models.StatusToDo {
		t.Errorf("status in Review section = %q, expected %q", task.Status, models.StatusToDo)
	}
}

func TestCreateSection_RapidAppendsStayOrdered(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, _ := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	// Back-to-back creates land within the defaults' timestamp window and
	// must still append in creation order.
	for _, name := range []string{"Review", "Blocked", "Archive"} {
		if _, err := svc.Create(&CreateSectionRequest{Name: name, ProjectID: project.ID}, alice.ID); err != nil {
			t.Fatalf("Create(%s) failed: %v", name, err)
		}
	}

	ordered, err := svc.List(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name
	}
	expected := []string{"To Do", "In Progress", "Done", "Review", "Blocked", "Archive"}
	if len(names) != len(expected) {
		t.Fatalf("order = %v, expected %v", names, expected)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("order = %v, expected %v", names, expected)
		}
	}
}

func TestCreateSection_UnknownSiblingAppends(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, _ := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	if _, err := svc.Create(&CreateSectionRequest{
		Name:           "Review",
		ProjectID:      project.ID,
		AfterSectionID: 99999,
	}, alice.ID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sections, err := svc.List(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sections) != 4 || sections[3].Name != "Review" {
		t.Errorf("expected Review appended last, got %d sections", len(sections))
	}
}

func TestCreateSection_AfterSibling(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, sections := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	// insert right after To Do
	if _, err := svc.Create(&CreateSectionRequest{
		Name:           "Blocked",
		ProjectID:      project.ID,
		AfterSectionID: sections[0].ID,
	}, alice.ID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ordered, err := svc.List(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name
	}
	expected := []string{"To Do", "Blocked", "In Progress", "Done"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("order = %v, expected %v", names, expected)
		}
	}
}

func TestUpdateSection_RenameKeepsTaskStatus(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	_, sections := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}

	if _, err := svc.Update(sections[0].ID, alice.ID, &UpdateSectionRequest{Name: "Done pile"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var reloaded models.Task
	db.First(&reloaded, task.ID)
	if reloaded.Status != models.StatusToDo {
		t.Errorf("rename must not touch task status, got %q", reloaded.Status)
	}
}

func TestDeleteSection_Cascades(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	project, sections := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}
	if _, err := NewCommentService(db).Add(task.ID, alice.ID, &AddCommentRequest{Text: "c"}); err != nil {
		t.Fatalf("comment Add failed: %v", err)
	}

	if _, err := svc.Delete(sections[0].ID, alice.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	remaining, err := svc.List(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 sections left, got %d", len(remaining))
	}

	var tasks, comments int64
	db.Model(&models.Task{}).Where("section_id = ?", sections[0].ID).Count(&tasks)
	db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&comments)
	if tasks != 0 || comments != 0 {
		t.Errorf("leftover rows: tasks=%d comments=%d", tasks, comments)
	}
}

func TestSectionList_Guards(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "mallory")
	project, _ := boardFixture(t, db, alice, nil)
	svc := NewSectionService(db)

	_, err := svc.List(project.ID, outsider.ID)
	assertAppError(t, err, http.StatusForbidden)

	_, err = svc.List(0, alice.ID)
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.Create(&CreateSectionRequest{Name: "X", ProjectID: 99999}, alice.ID)
	assertAppError(t, err, http.StatusNotFound)
}
