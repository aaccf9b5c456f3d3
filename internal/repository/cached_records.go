package repository

import (
	"context"
	"time"

	"github.com/liftline/liftline/internal/domain"
)

const (
	recordsCacheTTL = 10 * time.Minute
	statsCacheTTL   = 10 * time.Minute
	sessionCacheTTL = time.Hour
)

// CachedPersonalRecordRepository wraps the Mongo PR store with Redis
// read-through caching of the per-user record list. Point reads used by the
// engine's PR check go straight to Mongo; the hot path that benefits is the
// records screen.
type CachedPersonalRecordRepository struct {
	mongo *MongoPersonalRecordRepository
	cache *RedisCacheRepository
}

func NewCachedPersonalRecordRepository(mongo *MongoPersonalRecordRepository, cache *RedisCacheRepository) *CachedPersonalRecordRepository {
	return &CachedPersonalRecordRepository{
		mongo: mongo,
		cache: cache,
	}
}

func (r *CachedPersonalRecordRepository) Get(ctx context.Context, userID, exerciseKey string) (*domain.PersonalRecord, error) {
	return r.mongo.Get(ctx, userID, exerciseKey)
}

func (r *CachedPersonalRecordRepository) Upsert(ctx context.Context, record *domain.PersonalRecord) error {
	if err := r.mongo.Upsert(ctx, record); err != nil {
		return err
	}
	// New PR invalidates the list view (ignore cache errors)
	_ = r.cache.Delete(ctx, recordsKey(record.UserID))
	return nil
}

func (r *CachedPersonalRecordRepository) GetByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	key := recordsKey(userID)

	var cached []*domain.PersonalRecord
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	records, err := r.mongo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, records, recordsCacheTTL)
	return records, nil
}

// CachedUserStatsRepository caches the per-user stats document, invalidated
// on every overwrite.
type CachedUserStatsRepository struct {
	mongo *MongoUserStatsRepository
	cache *RedisCacheRepository
}

func NewCachedUserStatsRepository(mongo *MongoUserStatsRepository, cache *RedisCacheRepository) *CachedUserStatsRepository {
	return &CachedUserStatsRepository{
		mongo: mongo,
		cache: cache,
	}
}

func (r *CachedUserStatsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	key := statsKey(userID)

	var cached domain.UserStats
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	stats, err := r.mongo.Get(ctx, userID)
	if err != nil || stats == nil {
		return stats, err
	}

	_ = r.cache.Set(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

func (r *CachedUserStatsRepository) Put(ctx context.Context, stats *domain.UserStats) error {
	if err := r.mongo.Put(ctx, stats); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, statsKey(stats.UserID))
	return nil
}

// CachedSessionRepository caches the latest-completed lookup, which every
// session start performs for the "beat this" reference. Any write for the
// same (user, workout) invalidates it.
type CachedSessionRepository struct {
	mongo *MongoSessionRepository
	cache *RedisCacheRepository
}

func NewCachedSessionRepository(mongo *MongoSessionRepository, cache *RedisCacheRepository) *CachedSessionRepository {
	return &CachedSessionRepository{
		mongo: mongo,
		cache: cache,
	}
}

func (r *CachedSessionRepository) Create(ctx context.Context, record *domain.SessionRecord) error {
	return r.mongo.Create(ctx, record)
}

func (r *CachedSessionRepository) GetByID(ctx context.Context, id string) (*domain.SessionRecord, error) {
	return r.mongo.GetByID(ctx, id)
}

func (r *CachedSessionRepository) Update(ctx context.Context, record *domain.SessionRecord) error {
	if err := r.mongo.Update(ctx, record); err != nil {
		return err
	}
	if record.Completed {
		_ = r.cache.Delete(ctx, latestSessionKey(record.UserID, record.WorkoutID))
	}
	return nil
}

func (r *CachedSessionRepository) GetByUser(ctx context.Context, userID string, limit int64) ([]*domain.SessionRecord, error) {
	return r.mongo.GetByUser(ctx, userID, limit)
}

func (r *CachedSessionRepository) GetLatestCompleted(ctx context.Context, userID, workoutID string) (*domain.SessionRecord, error) {
	key := latestSessionKey(userID, workoutID)

	var cached domain.SessionRecord
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	record, err := r.mongo.GetLatestCompleted(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, record, sessionCacheTTL)
	return record, nil
}
