package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pego/domain/dto"
	"pego/infrastructure/logger"
	"pego/usecase"
)

type IAuthHandler interface {
	GoogleLogin(c *gin.Context)
	SendOTP(c *gin.Context)
	VerifyOTP(c *gin.Context)
	Me(c *gin.Context)
	UpdateMe(c *gin.Context)
}

type AuthHandler struct {
	authUsecase usecase.IAuthUsecase
}

func NewAuthHandler(authUsecase usecase.IAuthUsecase) IAuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req dto.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	res, err := h.authUsecase.LoginWithGoogle(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, res)
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.OTPSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	if err := h.authUsecase.SendOTP(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	res, err := h.authUsecase.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUsecase.GetProfile(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, user)
}

type updateProfileRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	Bio         string  `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	user, err := h.authUsecase.UpdateProfile(c.Request.Context(), callerID(c), req.DisplayName, req.Bio, req.AvatarURL)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, user)
}
