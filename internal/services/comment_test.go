package services

import (
	"net/http"
	"testing"
)

func TestAddComment(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	outsider := createTestUser(t, db, "mallory")
	_, sections := boardFixture(t, db, alice, bob)
	svc := NewCommentService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}

	comment, err := svc.Add(task.ID, bob.ID, &AddCommentRequest{Text: "  looks good  "})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if comment.Text != "looks good" {
		t.Errorf("text = %q, expected trimmed", comment.Text)
	}
	if comment.Author == nil || comment.Author.ID != bob.ID {
		t.Error("author not resolved on the created comment")
	}

	_, err = svc.Add(task.ID, bob.ID, &AddCommentRequest{Text: "   "})
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.Add(task.ID, outsider.ID, &AddCommentRequest{Text: "hi"})
	assertAppError(t, err, http.StatusForbidden)
}

func TestListComments_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	_, sections := boardFixture(t, db, alice, nil)
	svc := NewCommentService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}

	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.Add(task.ID, alice.ID, &AddCommentRequest{Text: text}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	comments, err := svc.List(task.ID, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(comments) != 3 || comments[0].Text != "first" || comments[2].Text != "third" {
		t.Errorf("order wrong: got %d comments", len(comments))
	}
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	_, sections := boardFixture(t, db, alice, bob)
	svc := NewCommentService(db)

	task, err := NewTaskService(db, newTestUploadService(t)).Create(&CreateTaskRequest{
		Name: "t", SectionID: sections[0].ID,
	}, alice.ID)
	if err != nil {
		t.Fatalf("task Create failed: %v", err)
	}

	comment, err := svc.Add(task.ID, bob.ID, &AddCommentRequest{Text: "mine"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// alice is a member but not the author
	err = svc.Delete(comment.ID, alice.ID)
	assertAppError(t, err, http.StatusForbidden)

	if err := svc.Delete(comment.ID, bob.ID); err != nil {
		t.Fatalf("author Delete failed: %v", err)
	}

	err = svc.Delete(comment.ID, bob.ID)
	assertAppError(t, err, http.StatusNotFound)
}
