package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"pego/domain/dto"
	"pego/usecase"
)

type IVideoHandler interface {
	ActiveRound(c *gin.Context)
	ListRounds(c *gin.Context)
	Leaderboard(c *gin.Context)
	ListVideos(c *gin.Context)
	RecordView(c *gin.Context)
}

type VideoHandler struct {
	roundUsecase       usecase.IRoundUsecase
	leaderboardUsecase usecase.ILeaderboardUsecase
}

func NewVideoHandler(roundUsecase usecase.IRoundUsecase, leaderboardUsecase usecase.ILeaderboardUsecase) IVideoHandler {
	return &VideoHandler{roundUsecase: roundUsecase, leaderboardUsecase: leaderboardUsecase}
}

func (h *VideoHandler) ActiveRound(c *gin.Context) {
	round, err := h.roundUsecase.GetActiveRound(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, round)
}

func (h *VideoHandler) ListRounds(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	rounds, err := h.roundUsecase.ListRounds(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, rounds)
}

func (h *VideoHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.leaderboardUsecase.Leaderboard(c.Request.Context(), c.Param("roundId"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, entries)
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	videos, err := h.leaderboardUsecase.ListVideos(c.Request.Context(), c.Param("roundId"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, videos)
}

// RecordView is public; anonymous views count with only a session id.
func (h *VideoHandler) RecordView(c *gin.Context) {
	var req dto.ViewRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.leaderboardUsecase.RecordView(c.Request.Context(), c.Param("videoId"), req); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}
