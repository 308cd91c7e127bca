package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveystats/internal/report"
)

// ReportRepo handles MongoDB operations for report snapshots
type ReportRepo interface {
	SaveSnapshot(ctx context.Context, snapshot *report.Snapshot) error
	LatestSnapshot(ctx context.Context, surveyID string) (*report.Snapshot, error)
}

type reportRepo struct {
	snapshots *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		snapshots: db.Collection("report_snapshots"),
	}
}

func (r *reportRepo) SaveSnapshot(ctx context.Context, snapshot *report.Snapshot) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.snapshots.ReplaceOne(ctx, bson.M{"_id": snapshot.ID}, snapshot, opts)
	return err
}

// LatestSnapshot returns nil, nil when the survey has no snapshot yet
func (r *reportRepo) LatestSnapshot(ctx context.Context, surveyID string) (*report.Snapshot, error) {
	var snapshot report.Snapshot
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.snapshots.FindOne(ctx, bson.M{"surveyId": surveyID}, opts).Decode(&snapshot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
