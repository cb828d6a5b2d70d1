package repository

import (
	"careerchat/internal/model"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TranscriptRepo stores the recorded turns of each session
type TranscriptRepo interface {
	Append(ctx context.Context, entry *model.TranscriptEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error)
	DeleteBySession(ctx context.Context, sessionID string) error
	EnsureIndexes(ctx context.Context) error
}

type transcriptRepo struct {
	collection *mongo.Collection
}

// NewTranscriptRepo creates a new transcript repository
func NewTranscriptRepo(db *mongo.Database) TranscriptRepo {
	return &transcriptRepo{
		collection: db.Collection("transcripts"),
	}
}

func (r *transcriptRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "sequence", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create index on %s: %w", r.collection.Name(), err)
	}
	return nil
}

// Append inserts one entry. A (sessionId, sequence) pair is written once; replays replace it.
func (r *transcriptRepo) Append(ctx context.Context, entry *model.TranscriptEntry) error {
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("%s:%d", entry.SessionID, entry.Sequence)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	filter := bson.M{"sessionId": entry.SessionID, "sequence": entry.Sequence}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, entry, opts)
	return err
}

func (r *transcriptRepo) ListBySession(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []model.TranscriptEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *transcriptRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
