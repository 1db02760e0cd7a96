package repository

import (
	"context"

	"pego/domain/model"
)

type IUser interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, displayName, bio string, avatarURL *string) error
	SetBanned(ctx context.Context, id string, banned bool, reason string) error
	TouchLastActive(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
