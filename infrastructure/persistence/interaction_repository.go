package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"pego/domain/model"
	"pego/domain/repository"
)

// InteractionRepository appends engagement events to Mongo. A nil database
// turns every call into a no-op so the API keeps serving without analytics.
type InteractionRepository struct{ db *mongo.Database }

func NewInteractionRepository(db *mongo.Database) repository.IInteraction {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Insert(ctx context.Context, interaction *model.VideoInteraction) error {
	if r.db == nil {
		return nil
	}
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Collection("video_interactions").InsertOne(ctx, interaction)
	return err
}

func (r *InteractionRepository) CountByVideo(ctx context.Context, videoID, interactionType string) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	return r.db.Collection("video_interactions").CountDocuments(ctx, bson.D{
		{Key: "video_id", Value: videoID},
		{Key: "type", Value: interactionType},
	})
}
