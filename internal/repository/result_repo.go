package repository

import (
	"careerchat/internal/model"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultRepo handles MongoDB operations for completed assessments
type ResultRepo interface {
	Upsert(ctx context.Context, result *model.AssessmentResult) error
	GetBySession(ctx context.Context, sessionID string) (*model.AssessmentResult, error)
	DeleteBySession(ctx context.Context, sessionID string) error
	EnsureIndexes(ctx context.Context) error
}

type resultRepo struct {
	results *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		results: db.Collection("assessment_results"),
	}
}

func (r *resultRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create index on %s: %w", r.results.Name(), err)
	}
	return nil
}

func (r *resultRepo) Upsert(ctx context.Context, result *model.AssessmentResult) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.results.ReplaceOne(ctx, bson.M{"sessionId": result.SessionID}, result, opts)
	return err
}

func (r *resultRepo) GetBySession(ctx context.Context, sessionID string) (*model.AssessmentResult, error) {
	var result model.AssessmentResult
	err := r.results.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.results.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	return err
}
