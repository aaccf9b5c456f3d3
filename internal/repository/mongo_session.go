package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/liftline/liftline/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("session_records"),
	}
}

func (r *MongoSessionRepository) Create(ctx context.Context, record *domain.SessionRecord) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *MongoSessionRepository) GetByID(ctx context.Context, id string) (*domain.SessionRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var record domain.SessionRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Update overwrites every mutable field in one write; the engine persists
// the full exercise array on each set completion.
func (r *MongoSessionRepository) Update(ctx context.Context, record *domain.SessionRecord) error {
	oid, err := primitive.ObjectIDFromHex(record.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	record.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"exercises":             record.Exercises,
			"completed":             record.Completed,
			"completion_percentage": record.CompletionPercentage,
			"end_time":              record.EndTime,
			"duration_minutes":      record.DurationMinutes,
			"difficulty_rating":     record.DifficultyRating,
			"updated_at":            record.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update session record: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *MongoSessionRepository) GetByUser(ctx context.Context, userID string, limit int64) ([]*domain.SessionRecord, error) {
	opts := options.Find().SetSort(bson.M{"start_time": -1})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.SessionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetLatestCompleted returns the most recent completed attempt of a workout;
// the latest start time wins.
func (r *MongoSessionRepository) GetLatestCompleted(ctx context.Context, userID, workoutID string) (*domain.SessionRecord, error) {
	filter := bson.M{
		"user_id":    userID,
		"workout_id": workoutID,
		"completed":  true,
	}
	opts := options.FindOne().SetSort(bson.M{"start_time": -1})

	var record domain.SessionRecord
	err := r.collection.FindOne(ctx, filter, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &record, nil
}
