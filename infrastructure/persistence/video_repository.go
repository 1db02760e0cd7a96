package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pego/domain/model"
	"pego/domain/repository"
)

type VideoRepository struct{ db *sql.DB }

func NewVideoRepository(db *sql.DB) repository.IVideo { return &VideoRepository{db: db} }

const videoColumns = `id, user_id, round_id, title, description, status, file_name, file_path,
	file_size, duration_secs, view_count, ledger_tx_id, upload_timestamp, created_at, updated_at`

func scanVideo(scanner interface{ Scan(...interface{}) error }) (*model.Video, error) {
	v := &model.Video{}
	err := scanner.Scan(
		&v.ID, &v.UserID, &v.RoundID, &v.Title, &v.Description, &v.Status, &v.FileName, &v.FilePath,
		&v.FileSize, &v.DurationSecs, &v.ViewCount, &v.LedgerTxID, &v.UploadTimestamp, &v.CreatedAt, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	now := time.Now().UTC()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO videos (`+videoColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		video.ID, video.UserID, video.RoundID, video.Title, video.Description, video.Status, video.FileName, video.FilePath,
		video.FileSize, video.DurationSecs, video.ViewCount, video.LedgerTxID, video.UploadTimestamp, video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	return scanVideo(r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

func (r *VideoRepository) TransitionStatus(ctx context.Context, id string, from []model.VideoStatus, to model.VideoStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
		to, time.Now().UTC(), id, pq.Array(states))
	if err != nil {
		return false, fmt.Errorf("video transition: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *VideoRepository) AttachLedgerTx(ctx context.Context, id, txID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE videos SET ledger_tx_id = $1, updated_at = $2 WHERE id = $3`,
		txID, time.Now().UTC(), id)
	return err
}

func (r *VideoRepository) PublishWithMedia(ctx context.Context, id, fileName, filePath string, fileSize int64, durationSecs float64, uploadedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET status = $1, file_name = $2, file_path = $3, file_size = $4,
			duration_secs = $5, upload_timestamp = $6, updated_at = $6
		 WHERE id = $7 AND status = $8`,
		model.VideoPublished, fileName, filePath, fileSize, durationSecs, uploadedAt, id, model.VideoPaidUnpublished)
	if err != nil {
		return false, fmt.Errorf("publish video: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *VideoRepository) ListPublishedByRound(ctx context.Context, roundID string, limit, offset int) ([]*model.Video, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE round_id = $1 AND status = $2
		 ORDER BY view_count DESC LIMIT $3 OFFSET $4`,
		roundID, model.VideoPublished, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

func (r *VideoRepository) TopByViews(ctx context.Context, roundID string, limit int) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE round_id = $1 AND status = $2
		 ORDER BY view_count DESC, upload_timestamp ASC LIMIT $3`,
		roundID, model.VideoPublished, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

func (r *VideoRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (r *VideoRepository) FindStalePendingPayment(ctx context.Context, cutoff time.Time) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE status = $1 AND created_at < $2`,
		model.VideoPendingPayment, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVideos(rows)
}

func (r *VideoRepository) CountByStatus(ctx context.Context, status model.VideoStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos WHERE status = $1`, status).Scan(&n)
	return n, err
}

func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

func collectVideos(rows *sql.Rows) ([]*model.Video, error) {
	var list []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
