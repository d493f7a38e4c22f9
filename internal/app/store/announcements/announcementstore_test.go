package announcements_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/announcements"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcements.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Announcement{
		Title:       "Easter schedule",
		Body:        `<p>Doors open at 7am.</p><script>alert("x")</script>`,
		CreatedByID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Priority != models.AnnouncementNormal {
		t.Errorf("Priority: got %q, want default %q", created.Priority, models.AnnouncementNormal)
	}
	if strings.Contains(created.Body, "<script") {
		t.Errorf("Body not sanitized: %q", created.Body)
	}
	if !strings.Contains(created.Body, "Doors open") {
		t.Errorf("Body text lost: %q", created.Body)
	}
	if created.PublishedAt.IsZero() {
		t.Error("expected PublishedAt to default")
	}
}

func TestStore_Create_BadPriority(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcements.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Announcement{
		Title:       "Loud one",
		Body:        "text",
		Priority:    "deafening",
		CreatedByID: primitive.NewObjectID(),
	})
	if !errors.Is(err, announcements.ErrBadPriority) {
		t.Errorf("expected ErrBadPriority, got %v", err)
	}
}

func TestStore_VisibleTo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcements.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := f.CreateTeam(ctx, "Parking Team")
	otherTeam := f.CreateTeam(ctx, "Greeter Team")
	author := primitive.NewObjectID()
	past := time.Now().UTC().Add(-time.Hour)

	mustCreate := func(a models.Announcement) {
		t.Helper()
		a.CreatedByID = author
		if _, err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	mustCreate(models.Announcement{Title: "Campus wide", Body: "hello"})
	mustCreate(models.Announcement{Title: "For parking", Body: "cones", TeamID: &team.ID})
	mustCreate(models.Announcement{Title: "For greeters", Body: "smiles", TeamID: &otherTeam.ID})
	mustCreate(models.Announcement{Title: "Stale", Body: "old", ExpiresAt: &past})

	now := time.Now().UTC()

	// A parking team member sees campus posts plus their team's.
	got, err := store.VisibleTo(ctx, false, []primitive.ObjectID{team.ID}, now, 0)
	if err != nil {
		t.Fatalf("VisibleTo failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("member: got %d announcements, want 2", len(got))
	}
	for _, a := range got {
		if a.Title == "For greeters" || a.Title == "Stale" {
			t.Errorf("leaked announcement %q", a.Title)
		}
	}

	// Admins see every live post.
	got, err = store.VisibleTo(ctx, true, nil, now, 0)
	if err != nil {
		t.Fatalf("VisibleTo failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("admin: got %d announcements, want 3", len(got))
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcements.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Announcement{
		Title:       "Temporary",
		Body:        "gone soon",
		CreatedByID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, announcements.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, announcements.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}
