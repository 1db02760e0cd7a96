package dto

type CreateRoundRequest struct {
	Title        string `json:"title" binding:"required"`
	DurationDays int    `json:"duration_days" binding:"required"`
	EntryFee     int64  `json:"entry_fee" binding:"required"`
	WinnerCount  int    `json:"winner_count" binding:"required"`
}

type BanRequest struct {
	Reason string `json:"reason"`
}

type CreditAdjustRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

type ModerateVideoRequest struct {
	Action string `json:"action" binding:"required"` // suspend | restore | delete
	Reason string `json:"reason"`
}

type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalVideos     int64 `json:"total_videos"`
	PublishedVideos int64 `json:"published_videos"`
	ActiveRounds    int64 `json:"active_rounds"`
	TotalRevenue    int64 `json:"total_revenue"`
	PrizePool       int64 `json:"prize_pool"`
}
