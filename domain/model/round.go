package model

import "time"

type RoundStatus string

const (
	RoundDraft  RoundStatus = "draft"
	RoundActive RoundStatus = "active"
	RoundEnded  RoundStatus = "ended"
)

// PrizePoolShare is the fraction of entry-fee revenue paid back out.
const PrizePoolShare = 0.70

type CompetitionRound struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	EntryFee     int64       `json:"entry_fee"`
	WinnerCount  int         `json:"winner_count"`
	TotalRevenue int64       `json:"total_revenue"`
	TotalVideos  int         `json:"total_videos"`
	PrizePool    int64       `json:"prize_pool"`
	Status       RoundStatus `json:"status"`
	CreatedBy    string      `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
}

// RankingEntry is one frozen leaderboard row, snapshotted when a round ends.
type RankingEntry struct {
	Rank      int    `json:"rank"`
	VideoID   string `json:"video_id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	ViewCount int64  `json:"view_count"`
}
