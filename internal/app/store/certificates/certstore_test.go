package certificates_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/certificates"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/trainhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewNumber(t *testing.T) {
	issued := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	num := certificates.NewNumber(issued)

	if !strings.HasPrefix(num, "CERT-20260412-") {
		t.Errorf("number %q missing date prefix", num)
	}
	suffix := strings.TrimPrefix(num, "CERT-20260412-")
	if len(suffix) != 8 {
		t.Errorf("suffix %q: got %d chars, want 8", suffix, len(suffix))
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffix %q should be uppercase", suffix)
	}

	if certificates.NewNumber(issued) == num {
		t.Error("two serials for the same day should differ")
	}
}

func seedEnrollment(userID, courseID primitive.ObjectID) models.Enrollment {
	return models.Enrollment{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		CourseID: courseID,
	}
}

func TestStore_IssueAndLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID())
	issued := time.Now().UTC()
	expires := issued.AddDate(1, 0, 0)

	cert, err := store.Issue(ctx, e, issued, &expires)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if cert.Status != models.CertStatusValid {
		t.Errorf("Status: got %q, want %q", cert.Status, models.CertStatusValid)
	}
	if cert.Number == "" {
		t.Error("expected a serial number")
	}
	if cert.UserID != e.UserID || cert.EnrollmentID != e.ID {
		t.Error("certificate should reference the enrollment's user and ID")
	}

	byNumber, err := store.GetByNumber(ctx, cert.Number)
	if err != nil {
		t.Fatalf("GetByNumber failed: %v", err)
	}
	if byNumber.ID != cert.ID {
		t.Error("GetByNumber returned the wrong certificate")
	}

	byEnrollment, err := store.GetByEnrollment(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment failed: %v", err)
	}
	if byEnrollment.ID != cert.ID {
		t.Error("GetByEnrollment returned the wrong certificate")
	}

	if _, err := store.GetByNumber(ctx, "CERT-19700101-DEADBEEF"); !errors.Is(err, certificates.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Revoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID())
	cert, err := store.Issue(ctx, e, time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Revoke(ctx, cert.ID, "issued in error"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	got, err := store.GetByID(ctx, cert.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.CertStatusRevoked {
		t.Errorf("Status: got %q, want %q", got.Status, models.CertStatusRevoked)
	}
	if got.RevokedAt == nil {
		t.Error("expected RevokedAt to be set")
	}
	if got.RevokeReason != "issued in error" {
		t.Errorf("RevokeReason: got %q", got.RevokeReason)
	}
	if got.CurrentlyValid(time.Now()) {
		t.Error("a revoked certificate must not count as valid")
	}
}

func TestStore_Extend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID())
	issued := time.Now().UTC()
	expired := issued.Add(-time.Hour)

	cert, err := store.Issue(ctx, e, issued, &expired)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Sweep flips the lapsed certificate to expired.
	count, err := store.MarkExpiredBatch(ctx, time.Now())
	if err != nil {
		t.Fatalf("MarkExpiredBatch failed: %v", err)
	}
	if count != 1 {
		t.Errorf("sweep count: got %d, want 1", count)
	}

	// Extend restores an expired certificate to valid with the new date.
	newExpiry := issued.AddDate(0, 6, 0)
	if err := store.Extend(ctx, cert.ID, newExpiry); err != nil {
		t.Fatalf("Extend failed: %v", err)
	}

	got, err := store.GetByID(ctx, cert.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.CertStatusValid {
		t.Errorf("Status: got %q, want %q", got.Status, models.CertStatusValid)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Truncate(time.Millisecond).Equal(newExpiry.Truncate(time.Millisecond)) {
		t.Errorf("ExpiresAt: got %v, want %v", got.ExpiresAt, newExpiry)
	}
}

func TestStore_Extend_RevokedRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID())
	cert, err := store.Issue(ctx, e, time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := store.Revoke(ctx, cert.ID, "revoked"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	err = store.Extend(ctx, cert.ID, time.Now().AddDate(1, 0, 0))
	if !errors.Is(err, certificates.ErrNotFound) {
		t.Errorf("expected ErrNotFound for revoked certificate, got %v", err)
	}
}

func TestStore_MarkExpiredBatch_LeavesOthersAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.AddDate(1, 0, 0)

	lapsed, _ := store.Issue(ctx, seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID()), now, &past)
	current, _ := store.Issue(ctx, seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID()), now, &future)
	forever, _ := store.Issue(ctx, seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID()), now, nil)

	count, err := store.MarkExpiredBatch(ctx, now)
	if err != nil {
		t.Fatalf("MarkExpiredBatch failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}

	for _, tc := range []struct {
		id   primitive.ObjectID
		want string
	}{
		{lapsed.ID, models.CertStatusExpired},
		{current.ID, models.CertStatusValid},
		{forever.ID, models.CertStatusValid},
	} {
		got, err := store.GetByID(ctx, tc.id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Status != tc.want {
			t.Errorf("certificate %s: got %q, want %q", tc.id.Hex(), got.Status, tc.want)
		}
	}
}

func TestStore_ArchiveByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := certificates.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	now := time.Now().UTC()

	c1, _ := store.Issue(ctx, seedEnrollment(user, primitive.NewObjectID()), now, nil)
	store.Issue(ctx, seedEnrollment(primitive.NewObjectID(), primitive.NewObjectID()), now, nil)

	count, err := store.ArchiveByUser(ctx, user)
	if err != nil {
		t.Fatalf("ArchiveByUser failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}

	got, err := store.GetByID(ctx, c1.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Archived || got.ArchivedAt == nil {
		t.Error("expected the certificate to be archived")
	}
	if got.CurrentlyValid(time.Now()) {
		t.Error("archived certificates never count as valid")
	}
}
