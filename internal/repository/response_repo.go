package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveystats/internal/model"
)

// ResponseRepo handles MongoDB operations for survey responses
type ResponseRepo interface {
	Create(ctx context.Context, resp *model.Response) error
	CreateMany(ctx context.Context, table model.ResponseTable) error
	List(ctx context.Context, surveyID string) (model.ResponseTable, error)
	Count(ctx context.Context, surveyID string) (int64, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Create(ctx context.Context, resp *model.Response) error {
	_, err := r.collection.InsertOne(ctx, resp)
	return err
}

func (r *responseRepo) CreateMany(ctx context.Context, table model.ResponseTable) error {
	if len(table) == 0 {
		return nil
	}
	docs := make([]interface{}, len(table))
	for i := range table {
		docs[i] = table[i]
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

// List returns responses in submission order
func (r *responseRepo) List(ctx context.Context, surveyID string) (model.ResponseTable, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	table := model.ResponseTable{}
	if err = cursor.All(ctx, &table); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *responseRepo) Count(ctx context.Context, surveyID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID})
}
