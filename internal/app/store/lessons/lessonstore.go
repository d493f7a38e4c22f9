// internal/app/store/lessons/lessonstore.go
package lessons

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the lessons collection: the ordered steps inside each
// course. Position is 1-based and unique per course (enforced by the
// uniq_lessons_course_position index).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("lessons")}
}

var (
	// ErrNotFound is returned when no lesson matches the given ID.
	ErrNotFound = errors.New("lesson not found")
	// ErrDuplicatePosition is returned when a lesson position is already taken.
	ErrDuplicatePosition = errors.New("a lesson already occupies this position")
	// ErrBadOrder is returned when a reorder request is not a permutation
	// of the course's lessons.
	ErrBadOrder = errors.New("order must list every lesson exactly once")
	// ErrInvalidType is returned for an unrecognized content type.
	ErrInvalidType = errors.New("invalid lesson content type")
)

// Add appends or inserts a lesson. Position 0 means "append at the
// end"; an explicit position must be free.
func (s *Store) Add(ctx context.Context, lesson models.Lesson) (models.Lesson, error) {
	if lesson.ContentType == "" {
		lesson.ContentType = models.DefaultLessonType
	}
	if !models.IsValidLessonType(lesson.ContentType) {
		return models.Lesson{}, ErrInvalidType
	}

	if lesson.Position <= 0 {
		max, err := s.maxPosition(ctx, lesson.CourseID)
		if err != nil {
			return models.Lesson{}, err
		}
		lesson.Position = max + 1
	}

	lesson.ID = primitive.NewObjectID()
	lesson.TitleCI = text.Fold(lesson.Title)
	lesson.CreatedAt = time.Now().UTC()
	lesson.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, lesson); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Lesson{}, ErrDuplicatePosition
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (s *Store) maxPosition(ctx context.Context, courseID primitive.ObjectID) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "position", Value: -1}}).
		SetProjection(bson.M{"position": 1})
	var row struct {
		Position int `bson:"position"`
	}
	err := s.c.FindOne(ctx, bson.M{"course_id": courseID}, opts).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Position, nil
}

// GetByID loads a lesson by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lesson, error) {
	var lesson models.Lesson
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&lesson); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Lesson{}, ErrNotFound
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

// ListByCourse returns a course's lessons in position order.
func (s *Store) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Lesson, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Lesson
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequiredIDs returns the IDs of a course's required lessons, the set
// that gates honor-policy completion.
func (s *Store) RequiredIDs(ctx context.Context, courseID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"course_id": courseID, "required": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Update modifies a lesson's editable fields (title, content, required
// flag, duration). Position changes go through Reorder.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, lesson models.Lesson) error {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if lesson.Title != "" {
		set["title"] = lesson.Title
		set["title_ci"] = text.Fold(lesson.Title)
	}
	if lesson.ContentType != "" {
		if !models.IsValidLessonType(lesson.ContentType) {
			return ErrInvalidType
		}
		set["content_type"] = lesson.ContentType
	}
	if lesson.ContentURL != "" {
		set["content_url"] = lesson.ContentURL
	}
	if lesson.Body != "" {
		set["body"] = lesson.Body
	}
	if lesson.DurationMins > 0 {
		set["duration_mins"] = lesson.DurationMins
	}
	set["required"] = lesson.Required

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a lesson and closes the position gap it leaves so the
// sequence stays dense.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	_, err = s.c.UpdateMany(ctx,
		bson.M{"course_id": lesson.CourseID, "position": bson.M{"$gt": lesson.Position}},
		bson.M{"$inc": bson.M{"position": -1}})
	return err
}

// Reorder applies a new position order to a course's lessons. order
// must list every lesson of the course exactly once; duplicate or
// missing IDs are rejected. Applying a course's current order is a
// no-op, so retries are safe.
//
// The rewrite parks every lesson on a negative offset first, then
// assigns the final 1-based positions. Going straight to the final
// positions would trip the unique (course_id, position) index whenever
// a lesson moves into a slot that another lesson has not vacated yet.
func (s *Store) Reorder(ctx context.Context, courseID primitive.ObjectID, order []primitive.ObjectID) error {
	current, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if len(order) != len(current) {
		return ErrBadOrder
	}
	existing := make(map[primitive.ObjectID]int, len(current)) // id -> current position
	for _, l := range current {
		existing[l.ID] = l.Position
	}
	seen := make(map[primitive.ObjectID]bool, len(order))
	for _, id := range order {
		if _, ok := existing[id]; !ok || seen[id] {
			return ErrBadOrder
		}
		seen[id] = true
	}

	changed := false
	for i, id := range order {
		if existing[id] != i+1 {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	park := make([]mongo.WriteModel, 0, len(order))
	for i, id := range order {
		park = append(park, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "course_id": courseID}).
			SetUpdate(bson.M{"$set": bson.M{"position": -(i + 1)}}))
	}
	if _, err := s.c.BulkWrite(ctx, park); err != nil {
		return err
	}

	final := make([]mongo.WriteModel, 0, len(order))
	now := time.Now().UTC()
	for i, id := range order {
		final = append(final, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "course_id": courseID}).
			SetUpdate(bson.M{"$set": bson.M{"position": i + 1, "updated_at": now}}))
	}
	_, err = s.c.BulkWrite(ctx, final)
	return err
}

// CountByCourse returns the number of lessons in a course, optionally
// only the required ones.
func (s *Store) CountByCourse(ctx context.Context, courseID primitive.ObjectID, requiredOnly bool) (int64, error) {
	filter := bson.M{"course_id": courseID}
	if requiredOnly {
		filter["required"] = true
	}
	return s.c.CountDocuments(ctx, filter)
}
