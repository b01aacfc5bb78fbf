package repository

import (
	"context"
	"driverless-backend/internal/models"
	"driverless-backend/pkg/database"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultArchiveLimit = 100
	MaxArchiveLimit     = 1000
)

// IncidentRepository is the MongoDB archive of incident log entries. Entries
// keep the id the incident log gave them, so writing one twice is harmless.
type IncidentRepository struct {
	collection *mongo.Collection
}

func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{
		collection: db.Collection(database.IncidentsCollection),
	}
}

func (r *IncidentRepository) InsertIncidents(ctx context.Context, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, len(entries))
	for i, entry := range entries {
		docs[i] = entry
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("insert incidents: %w", err)
	}
	return nil
}

func (r *IncidentRepository) InsertIncident(ctx context.Context, entry models.LogEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert incident %s: %w", entry.ID, err)
	}
	return nil
}

// DeleteOlderThan removes archived entries logged before cutoff.
func (r *IncidentRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete incidents before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return result.DeletedCount, nil
}

// FindRecent returns up to limit archived entries, most recent first.
func (r *IncidentRepository) FindRecent(ctx context.Context, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultArchiveLimit
	}
	limit = min(limit, MaxArchiveLimit)

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find incidents: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.LogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode incidents: %w", err)
	}
	return entries, nil
}

// onlyDuplicates reports whether every write error in err is a duplicate key.
func onlyDuplicates(err error) bool {
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return mongo.IsDuplicateKeyError(err)
	}
	if bulkErr.WriteConcernError != nil || len(bulkErr.WriteErrors) == 0 {
		return false
	}
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
