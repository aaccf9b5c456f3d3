package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/liftline/liftline/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserStatsRepository keys the stats document by the user id itself;
// one document per trainee, always overwritten whole.
type MongoUserStatsRepository struct {
	collection *mongo.Collection
}

func NewMongoUserStatsRepository(db *mongo.Database) *MongoUserStatsRepository {
	return &MongoUserStatsRepository{
		collection: db.Collection("user_stats"),
	}
}

func (r *MongoUserStatsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	var stats domain.UserStats
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // first session ever
		}
		return nil, err
	}
	stats.UserID = userID
	return &stats, nil
}

func (r *MongoUserStatsRepository) Put(ctx context.Context, stats *domain.UserStats) error {
	stats.UpdatedAt = time.Now()

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": stats.UserID},
		stats,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write user stats: %w", err)
	}
	return nil
}
