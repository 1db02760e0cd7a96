package model

import "time"

type VideoStatus string

const (
	VideoPendingPayment  VideoStatus = "pending_payment"
	VideoPaidUnpublished VideoStatus = "paid_unpublished"
	VideoPublished       VideoStatus = "published"
	VideoSuspended       VideoStatus = "suspended"
	VideoDeleted         VideoStatus = "deleted"
)

// Media caps enforced before a file is accepted into storage.
const (
	MaxMediaSizeBytes     = 100 * 1024 * 1024
	MaxMediaDurationSecs  = 180
	MaxTitleLength        = 120
	MaxDescriptionLength  = 2000
)

type Video struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	RoundID         string      `json:"round_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Status          VideoStatus `json:"status"`
	FileName        string      `json:"file_name"`
	FilePath        string      `json:"file_path"`
	FileSize        int64       `json:"file_size"`
	DurationSecs    float64     `json:"duration_secs"`
	ViewCount       int64       `json:"view_count"`
	LedgerTxID      *string     `json:"ledger_tx_id,omitempty"`
	UploadTimestamp *time.Time  `json:"upload_timestamp,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// VideoInteraction is an append-only engagement event (view, like, watch_time).
type VideoInteraction struct {
	ID        string    `json:"id"        bson:"id"`
	VideoID   string    `json:"video_id"  bson:"video_id"`
	UserID    *string   `json:"user_id,omitempty" bson:"user_id,omitempty"`
	SessionID *string   `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Type      string    `json:"type"      bson:"type"`
	Value     float64   `json:"value"     bson:"value"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
