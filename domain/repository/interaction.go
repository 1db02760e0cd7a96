package repository

import (
	"context"

	"pego/domain/model"
)

// IInteraction stores append-only engagement events (Mongo-backed).
type IInteraction interface {
	Insert(ctx context.Context, interaction *model.VideoInteraction) error
	CountByVideo(ctx context.Context, videoID, interactionType string) (int64, error)
}
