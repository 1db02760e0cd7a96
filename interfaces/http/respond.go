package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pego/domain/dto"
	"pego/domain/model"
)

const ErrorUnmarshal = "Error while unmarshal"

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrUnknownMethod),
		errors.Is(err, model.ErrMediaTooLarge),
		errors.Is(err, model.ErrMediaTooLong):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUserBanned):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrNoActiveRound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientCredit):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAlreadyFinalized),
		errors.Is(err, model.ErrAlreadyRefunded),
		errors.Is(err, model.ErrExpired):
		return http.StatusConflict
	case errors.Is(err, model.ErrOTPInvalid):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, dto.Res{
		ResponseCode:    strconv.Itoa(status),
		ResponseMessage: message,
	})
}

func writeOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "Success",
		Data:            data,
	})
}

func writeCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.Res{
		ResponseCode:    "201",
		ResponseMessage: "Created",
		Data:            data,
	})
}

func callerID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
