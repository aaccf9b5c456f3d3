package repository

import (
	"context"
	"time"

	"github.com/liftline/liftline/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPersonalRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoPersonalRecordRepository(db *mongo.Database) *MongoPersonalRecordRepository {
	return &MongoPersonalRecordRepository{
		collection: db.Collection("personal_records"),
	}
}

func (r *MongoPersonalRecordRepository) Get(ctx context.Context, userID, exerciseKey string) (*domain.PersonalRecord, error) {
	var record domain.PersonalRecord
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":      userID,
		"exercise_key": exerciseKey,
	}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // no record yet, a valid first-time state
		}
		return nil, err
	}
	return &record, nil
}

// Upsert writes the record keyed by (user, exercise key). The engine has
// already applied the ordering rule; this is a plain keyed overwrite.
func (r *MongoPersonalRecordRepository) Upsert(ctx context.Context, record *domain.PersonalRecord) error {
	now := time.Now()
	record.UpdatedAt = now

	filter := bson.M{
		"user_id":      record.UserID,
		"exercise_key": record.ExerciseKey,
	}
	update := bson.M{
		"$set": bson.M{
			"exercise_name": record.ExerciseName,
			"best_weight":   record.BestWeight,
			"best_reps":     record.BestReps,
			"date":          record.Date,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{
			"user_id":      record.UserID,
			"exercise_key": record.ExerciseKey,
			"created_at":   now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoPersonalRecordRepository) GetByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"exercise_key": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.PersonalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
