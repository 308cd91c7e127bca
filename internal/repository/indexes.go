package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the indexes List and LatestSnapshot sort on.
// Existing indexes with the same keys are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		coll string
		keys bson.D
	}{
		{"responses", bson.D{{Key: "surveyId", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}},
		{"report_snapshots", bson.D{{Key: "surveyId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	for _, idx := range indexes {
		_, err := db.Collection(idx.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll, err)
		}
	}
	return nil
}
