package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pego/domain/dto"
	"pego/usecase"
)

type IAdminHandler interface {
	CreateRound(c *gin.Context)
	ActivateRound(c *gin.Context)
	EndRound(c *gin.Context)
	BanUser(c *gin.Context)
	UnbanUser(c *gin.Context)
	AdjustCredit(c *gin.Context)
	ModerateVideo(c *gin.Context)
	Stats(c *gin.Context)
}

type AdminHandler struct {
	roundUsecase usecase.IRoundUsecase
	adminUsecase usecase.IAdminUsecase
}

func NewAdminHandler(roundUsecase usecase.IRoundUsecase, adminUsecase usecase.IAdminUsecase) IAdminHandler {
	return &AdminHandler{roundUsecase: roundUsecase, adminUsecase: adminUsecase}
}

func (h *AdminHandler) CreateRound(c *gin.Context) {
	var req dto.CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	round, err := h.roundUsecase.CreateRound(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, round)
}

func (h *AdminHandler) ActivateRound(c *gin.Context) {
	round, err := h.roundUsecase.ActivateRound(c.Request.Context(), c.Param("roundId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, round)
}

func (h *AdminHandler) EndRound(c *gin.Context) {
	round, err := h.roundUsecase.EndRound(c.Request.Context(), c.Param("roundId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, round)
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	var req dto.BanRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.adminUsecase.BanUser(c.Request.Context(), c.Param("userId"), req.Reason); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	if err := h.adminUsecase.UnbanUser(c.Request.Context(), c.Param("userId")); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}

func (h *AdminHandler) AdjustCredit(c *gin.Context) {
	var req dto.CreditAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	tx, err := h.adminUsecase.AdjustCredit(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, tx)
}

func (h *AdminHandler) ModerateVideo(c *gin.Context) {
	var req dto.ModerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	video, err := h.adminUsecase.ModerateVideo(c.Request.Context(), c.Param("videoId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, video)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminUsecase.DashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, stats)
}
