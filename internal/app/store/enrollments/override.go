// internal/app/store/enrollments/override.go
package enrollments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/certificates"
	"github.com/dalemusser/trainhub/internal/app/system/txn"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Override actions.
const (
	OverrideAward  = "award"
	OverrideRevoke = "revoke"
	OverrideExtend = "extend"
)

// Override is the manual escape hatch on the state machine. Every call
// requires a non-empty reason and is attributed to an actor by the
// audit trail in the calling handler.
//
//   - award forces completed from any prior status, criteria met or
//     not, and issues a certificate when the course is configured to.
//   - revoke forces revoked from any status and invalidates the
//     enrollment's certificate.
//   - extend moves an issued certificate's expiry forward without
//     touching completion state. With a nil until, the new expiry is
//     one validity period past max(now, current expiry).
func (s *Store) Override(ctx context.Context, e models.Enrollment, course models.Course, action, reason string, until *time.Time) (Result, error) {
	if e.CourseID != course.ID {
		return Result{}, ErrCourseMismatch
	}
	if strings.TrimSpace(reason) == "" {
		return Result{}, ErrReasonRequired
	}

	switch action {
	case OverrideAward:
		return s.award(ctx, e, course)
	case OverrideRevoke:
		return s.revoke(ctx, e, reason)
	case OverrideExtend:
		return s.extend(ctx, e, course, until)
	}
	return Result{}, ErrBadAction
}

// award forces completion. A revoked or expired certificate is replaced
// with a freshly issued one; a still-valid certificate is kept.
func (s *Store) award(ctx context.Context, e models.Enrollment, course models.Course) (Result, error) {
	now := time.Now().UTC()

	if e.Status == models.EnrollmentCompleted {
		// Already complete. Reissue only when the certificate is gone
		// or no longer valid.
		if !course.Certificate.Enabled {
			return Result{Enrollment: e}, nil
		}
		if e.CertificateID != nil {
			cert, err := s.certs.GetByID(ctx, *e.CertificateID)
			if err == nil && cert.EffectiveStatus(now) == models.CertStatusValid {
				return Result{Enrollment: e, Certificate: &cert}, nil
			}
			if err != nil && !errors.Is(err, certificates.ErrNotFound) {
				return Result{}, err
			}
		}
	}

	return s.complete(ctx, e, course, models.CompletionByOverride, now, false)
}

// revoke forces the enrollment to revoked and invalidates any
// certificate. Idempotent on an already-revoked enrollment.
func (s *Store) revoke(ctx context.Context, e models.Enrollment, reason string) (Result, error) {
	now := time.Now().UTC()
	res := Result{}

	err := txn.WithTransaction(ctx, s.client, func(tc context.Context) error {
		upd, err := s.c.UpdateByID(tc, e.ID, bson.M{"$set": bson.M{
			"status":     models.EnrollmentRevoked,
			"updated_at": now,
		}})
		if err != nil {
			return err
		}
		if upd.MatchedCount == 0 {
			return ErrNotFound
		}
		e.Status = models.EnrollmentRevoked

		if e.CertificateID != nil {
			if err := s.certs.Revoke(tc, *e.CertificateID, reason); err != nil && !errors.Is(err, certificates.ErrNotFound) {
				return err
			}
			cert, err := s.certs.GetByID(tc, *e.CertificateID)
			if err == nil {
				res.Certificate = &cert
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Enrollment = e
	return res, nil
}

// extend pushes the certificate expiry forward. Requires an issued,
// non-revoked certificate; there is nothing to extend otherwise.
func (s *Store) extend(ctx context.Context, e models.Enrollment, course models.Course, until *time.Time) (Result, error) {
	if e.CertificateID == nil {
		return Result{}, ErrInvalidTransition
	}
	cert, err := s.certs.GetByID(ctx, *e.CertificateID)
	if err != nil {
		if errors.Is(err, certificates.ErrNotFound) {
			return Result{}, ErrInvalidTransition
		}
		return Result{}, err
	}
	if cert.Status == models.CertStatusRevoked {
		return Result{}, ErrInvalidTransition
	}

	now := time.Now().UTC()
	var newExpiry time.Time
	if until != nil {
		if !until.After(now) {
			return Result{}, ErrInvalidTransition
		}
		newExpiry = until.UTC()
	} else {
		// One more validity period, counted from whichever is later:
		// now (lapsed certificate) or the current expiry (early renewal
		// extends, never shortens).
		base := now
		if cert.ExpiresAt != nil && cert.ExpiresAt.After(now) {
			base = *cert.ExpiresAt
		}
		valid := course.Certificate.ValidFor()
		if valid <= 0 {
			return Result{}, ErrInvalidTransition
		}
		newExpiry = base.Add(valid)
	}

	if err := s.certs.Extend(ctx, cert.ID, newExpiry); err != nil {
		return Result{}, err
	}
	cert.Status = models.CertStatusValid
	cert.ExpiresAt = &newExpiry

	return Result{Enrollment: e, Certificate: &cert}, nil
}
