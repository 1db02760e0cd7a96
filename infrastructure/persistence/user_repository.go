package persistence

import (
	"context"
	"database/sql"
	"time"

	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/logger"
)

type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) repository.IUser { return &UserRepository{db: db} }

const userColumns = `id, username, display_name, email, phone, google_id, avatar_url, bio,
	is_verified, is_admin, credit_balance, is_active, banned_at, ban_reason, created_at, last_active_at`

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.Phone, &u.GoogleID, &u.AvatarURL, &u.Bio,
		&u.IsVerified, &u.IsAdmin, &u.CreditBalance, &u.IsActive, &u.BannedAt, &u.BanReason, &u.CreatedAt, &u.LastActiveAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = now
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		user.ID, user.Username, user.DisplayName, user.Email, user.Phone, user.GoogleID, user.AvatarURL, user.Bio,
		user.IsVerified, user.IsAdmin, user.CreditBalance, user.IsActive, user.BannedAt, user.BanReason, user.CreatedAt, user.LastActiveAt,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("username", user.Username).Error("create user failed")
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, displayName, bio string, avatarURL *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = $1, bio = $2, avatar_url = COALESCE($3, avatar_url) WHERE id = $4`,
		displayName, bio, avatarURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetBanned(ctx context.Context, id string, banned bool, reason string) error {
	var err error
	if banned {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_active = FALSE, banned_at = $1, ban_reason = $2 WHERE id = $3`,
			time.Now().UTC(), reason, id)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_active = TRUE, banned_at = NULL, ban_reason = NULL WHERE id = $1`, id)
	}
	return err
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
