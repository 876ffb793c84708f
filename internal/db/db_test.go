package db

import (
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func seedUser(t *testing.T, database *DB, email string) *User {
	t.Helper()
	user, err := database.CreateUser(CreateUserInput{
		Name:         "Meena",
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func seedComplaint(t *testing.T, database *DB, userID string, input CreateComplaintInput) *Complaint {
	t.Helper()
	input.UserID = userID
	if input.Name == "" {
		input.Name = "Meena"
	}
	if input.Email == "" {
		input.Email = "meena@example.org"
	}
	if input.District == "" {
		input.District = "east"
	}
	if input.Description == "" {
		input.Description = "streetlight out on the corner"
	}
	c, err := database.CreateComplaint(input)
	if err != nil {
		t.Fatalf("creating complaint: %v", err)
	}
	return c
}

var codeFormat = regexp.MustCompile(`^CMP-\d{5}-\d{4}$`)

func TestCreateComplaint(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")

	c := seedComplaint(t, database, user.ID, CreateComplaintInput{
		Description: "garbage heap near the school",
		Category:    "garbage",
		Priority:    "medium",
	})

	if !codeFormat.MatchString(c.ComplaintCode) {
		t.Errorf("unexpected complaint code format: %s", c.ComplaintCode)
	}
	if c.Status != "pending" {
		t.Errorf("expected initial status pending, got %s", c.Status)
	}
	if c.Category != "garbage" || c.Priority != "medium" {
		t.Errorf("expected garbage/medium, got %s/%s", c.Category, c.Priority)
	}
}

func TestCreateComplaintDefaults(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")

	c := seedComplaint(t, database, user.ID, CreateComplaintInput{})
	if c.Category != "unassigned" {
		t.Errorf("expected category unassigned, got %s", c.Category)
	}
	if c.Priority != "low" {
		t.Errorf("expected priority low, got %s", c.Priority)
	}
	if c.ClassifierSource != nil {
		t.Errorf("expected no classifier source, got %v", *c.ClassifierSource)
	}
}

func TestEffectiveCategory(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")

	c := seedComplaint(t, database, user.ID, CreateComplaintInput{Category: "roads"})
	if c.EffectiveCategory() != "roads" {
		t.Errorf("expected roads, got %s", c.EffectiveCategory())
	}

	corrected, err := database.SetHumanCorrection(c.ID, "utilities")
	if err != nil {
		t.Fatalf("setting correction: %v", err)
	}
	if corrected.EffectiveCategory() != "utilities" {
		t.Errorf("expected correction to win, got %s", corrected.EffectiveCategory())
	}
	if corrected.Category != "roads" {
		t.Errorf("expected model label retained, got %s", corrected.Category)
	}

	cleared, err := database.SetHumanCorrection(c.ID, "")
	if err != nil {
		t.Fatalf("clearing correction: %v", err)
	}
	if cleared.EffectiveCategory() != "roads" {
		t.Errorf("expected model label after clearing, got %s", cleared.EffectiveCategory())
	}
}

func TestUpdateStatus(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")
	c := seedComplaint(t, database, user.ID, CreateComplaintInput{})

	updated, err := database.UpdateStatus(c.ID, "in progress")
	if err != nil {
		t.Fatalf("updating status: %v", err)
	}
	if updated.Status != "in progress" {
		t.Errorf("expected in progress, got %s", updated.Status)
	}

	if _, err := database.UpdateStatus("missing", "resolved"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown id, got %v", err)
	}
}

func TestListComplaintsForUserMatchesEmail(t *testing.T) {
	database := openTestDB(t)
	owner := seedUser(t, database, "owner@example.org")
	other := seedUser(t, database, "other@example.org")

	// filed under the other account but with the owner's email on the form
	seedComplaint(t, database, other.ID, CreateComplaintInput{Email: "owner@example.org"})
	seedComplaint(t, database, other.ID, CreateComplaintInput{Email: "other@example.org"})

	mine, err := database.ListComplaintsForUser(owner.ID, "owner@example.org")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 complaint via email match, got %d", len(mine))
	}
}

func TestSimilarityCandidates(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")

	target := seedComplaint(t, database, user.ID, CreateComplaintInput{})
	open := seedComplaint(t, database, user.ID, CreateComplaintInput{})
	resolved := seedComplaint(t, database, user.ID, CreateComplaintInput{})
	if _, err := database.UpdateStatus(resolved.ID, "resolved"); err != nil {
		t.Fatalf("resolving: %v", err)
	}

	candidates, err := database.SimilarityCandidates(target.ID)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != open.ID {
		t.Errorf("expected open complaint, got %s", candidates[0].ID)
	}
	if candidates[0].Submitter == nil || candidates[0].Submitter.Email != "meena@example.org" {
		t.Errorf("expected submitter expanded, got %+v", candidates[0].Submitter)
	}
}

func TestDeleteComplaintCascades(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")
	c := seedComplaint(t, database, user.ID, CreateComplaintInput{})

	if _, err := database.CreateNotification(CreateNotificationInput{
		Type:        "new_complaint",
		Title:       "New Complaint Submitted",
		Message:     "x",
		ComplaintID: c.ID,
	}); err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	deleted, err := database.DeleteComplaint(c.ID)
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if deleted.ID != c.ID {
		t.Errorf("expected deleted record returned, got %s", deleted.ID)
	}

	notifications, err := database.ListNotifications(0)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(notifications) != 0 {
		t.Errorf("expected notifications removed with complaint, got %d", len(notifications))
	}

	if _, err := database.GetComplaint(c.ID); err == nil {
		t.Error("expected complaint gone")
	}
}

func TestSeedAdmin(t *testing.T) {
	database := openTestDB(t)

	created, err := database.SeedAdmin("Admin", "admin@example.org", "hash1")
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if !created {
		t.Error("expected first seed to create")
	}

	created, err = database.SeedAdmin("Admin", "admin@example.org", "hash2")
	if err != nil {
		t.Fatalf("re-seeding: %v", err)
	}
	if created {
		t.Error("expected second seed to update")
	}

	user, hash, err := database.GetUserByEmail("admin@example.org")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("expected admin role, got %s", user.Role)
	}
	if hash != "hash2" {
		t.Errorf("expected updated password hash, got %s", hash)
	}
}

func TestListUsersContactOverride(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")

	age := 34
	seedComplaint(t, database, user.ID, CreateComplaintInput{
		Email:    "meena@example.org",
		Phone:    "555-0101",
		District: "harbor",
		Age:      &age,
	})

	users, err := database.ListUsers()
	if err != nil {
		t.Fatalf("listing users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	u := users[0]
	if u.Phone != "555-0101" || u.District != "harbor" {
		t.Errorf("expected complaint contact override, got phone %q district %q", u.Phone, u.District)
	}
	if u.Age == nil || *u.Age != 34 {
		t.Errorf("expected age override 34, got %v", u.Age)
	}
}

func TestNotificationReadState(t *testing.T) {
	database := openTestDB(t)
	user := seedUser(t, database, "meena@example.org")
	c := seedComplaint(t, database, user.ID, CreateComplaintInput{})

	n, err := database.CreateNotification(CreateNotificationInput{
		Type:        "status_update",
		Title:       "Complaint Status Updated",
		Message:     "x",
		ComplaintID: c.ID,
	})
	if err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	list, err := database.ListNotifications(0)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list))
	}
	if list[0].Read {
		t.Error("expected unread")
	}
	if list[0].ComplaintCode == nil || *list[0].ComplaintCode != c.ComplaintCode {
		t.Errorf("expected complaint code expanded, got %v", list[0].ComplaintCode)
	}

	if err := database.MarkNotificationRead(n.ID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	list, _ = database.ListNotifications(0)
	if !list[0].Read {
		t.Error("expected read after marking")
	}

	if err := database.MarkNotificationRead("missing"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}
