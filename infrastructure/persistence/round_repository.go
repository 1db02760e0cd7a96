package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pego/domain/model"
	"pego/domain/repository"
)

type RoundRepository struct{ db *sql.DB }

func NewRoundRepository(db *sql.DB) repository.IRound { return &RoundRepository{db: db} }

const roundColumns = `id, title, start_time, end_time, entry_fee, winner_count,
	total_revenue, total_videos, prize_pool, status, created_by, created_at, ended_at`

func scanRound(scanner interface{ Scan(...interface{}) error }) (*model.CompetitionRound, error) {
	round := &model.CompetitionRound{}
	err := scanner.Scan(
		&round.ID, &round.Title, &round.StartTime, &round.EndTime, &round.EntryFee, &round.WinnerCount,
		&round.TotalRevenue, &round.TotalVideos, &round.PrizePool, &round.Status, &round.CreatedBy, &round.CreatedAt, &round.EndedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (r *RoundRepository) Create(ctx context.Context, round *model.CompetitionRound) error {
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO competition_rounds (`+roundColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		round.ID, round.Title, round.StartTime, round.EndTime, round.EntryFee, round.WinnerCount,
		round.TotalRevenue, round.TotalVideos, round.PrizePool, round.Status, round.CreatedBy, round.CreatedAt, round.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (r *RoundRepository) GetByID(ctx context.Context, id string) (*model.CompetitionRound, error) {
	return scanRound(r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM competition_rounds WHERE id = $1`, id))
}

func (r *RoundRepository) GetActive(ctx context.Context) (*model.CompetitionRound, error) {
	round, err := scanRound(r.db.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM competition_rounds WHERE status = 'active'`))
	if err == model.ErrNotFound {
		return nil, model.ErrNoActiveRound
	}
	return round, err
}

func (r *RoundRepository) List(ctx context.Context, limit, offset int) ([]*model.CompetitionRound, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM competition_rounds ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.CompetitionRound
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, round)
	}
	return list, rows.Err()
}

func (r *RoundRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competition_rounds WHERE status = 'active'`).Scan(&n)
	return n, err
}

func (r *RoundRepository) TransitionStatus(ctx context.Context, id string, from, to model.RoundStatus, endedAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE competition_rounds SET status = $1, ended_at = COALESCE($2, ended_at) WHERE id = $3 AND status = $4`,
		to, endedAt, id, from)
	if err != nil {
		return false, fmt.Errorf("round transition: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *RoundRepository) IncrementStats(ctx context.Context, id string, revenue, prize int64, videos int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE competition_rounds SET total_revenue = total_revenue + $1, prize_pool = prize_pool + $2, total_videos = total_videos + $3 WHERE id = $4`,
		revenue, prize, videos, id)
	return err
}

func (r *RoundRepository) SaveRankingSnapshot(ctx context.Context, id string, entries []model.RankingEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE competition_rounds SET ranking_snapshot = $1 WHERE id = $2`, raw, id)
	return err
}

func (r *RoundRepository) GetRankingSnapshot(ctx context.Context, id string) ([]model.RankingEntry, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT ranking_snapshot FROM competition_rounds WHERE id = $1`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var entries []model.RankingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
