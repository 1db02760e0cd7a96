package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/infrastructure/logger"
	"pego/usecase"
)

type IUploadHandler interface {
	Initiate(c *gin.Context)
	ChoosePaymentMethod(c *gin.Context)
	UploadMedia(c *gin.Context)
	Cancel(c *gin.Context)
	GetVideo(c *gin.Context)
}

type UploadHandler struct {
	uploadUsecase usecase.IUploadUsecase
	uploadDir     string
	maxSizeBytes  int64
}

func NewUploadHandler(uploadUsecase usecase.IUploadUsecase, uploadDir string, maxSizeBytes int64) IUploadHandler {
	if maxSizeBytes == 0 {
		maxSizeBytes = model.MaxMediaSizeBytes
	}
	return &UploadHandler{uploadUsecase: uploadUsecase, uploadDir: uploadDir, maxSizeBytes: maxSizeBytes}
}

func (h *UploadHandler) Initiate(c *gin.Context) {
	var req dto.UploadInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	res, err := h.uploadUsecase.Initiate(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, res)
}

func (h *UploadHandler) ChoosePaymentMethod(c *gin.Context) {
	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	session, err := h.uploadUsecase.ChoosePaymentMethod(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, session)
}

// UploadMedia receives the video file as multipart form data. The declared
// duration comes from the client; the caps are re-checked before publish.
func (h *UploadHandler) UploadMedia(c *gin.Context) {
	videoID := c.Param("videoId")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "file is required"})
		return
	}
	if file.Size > h.maxSizeBytes {
		writeError(c, model.ErrMediaTooLarge)
		return
	}
	durationSecs, err := strconv.ParseFloat(c.PostForm("duration_secs"), 64)
	if err != nil || durationSecs <= 0 {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "duration_secs is required"})
		return
	}

	fileName := uuid.NewString() + filepath.Ext(file.Filename)
	filePath := filepath.Join(h.uploadDir, fileName)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed saving uploaded file")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "failed storing file"})
		return
	}

	video, err := h.uploadUsecase.AcceptMedia(c.Request.Context(), callerID(c), videoID, fileName, filePath, file.Size, durationSecs)
	if err != nil {
		if rmErr := os.Remove(filePath); rmErr != nil {
			logger.GetLogger().WithField("error", rmErr).Warn("failed removing rejected upload")
		}
		writeError(c, err)
		return
	}
	if video.FilePath != filePath {
		// Idempotent ack of an already-published entry; the entry keeps its
		// original media, so the freshly saved copy is a duplicate.
		if rmErr := os.Remove(filePath); rmErr != nil {
			logger.GetLogger().WithField("error", rmErr).Warn("failed removing duplicate upload")
		}
	}
	writeOK(c, video)
}

func (h *UploadHandler) Cancel(c *gin.Context) {
	if err := h.uploadUsecase.Cancel(c.Request.Context(), callerID(c), c.Param("videoId")); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}

func (h *UploadHandler) GetVideo(c *gin.Context) {
	video, err := h.uploadUsecase.GetVideo(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, video)
}
