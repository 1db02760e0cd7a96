package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/usecase"
)

type IPaymentHandler interface {
	Topup(c *gin.Context)
	Methods(c *gin.Context)
	GetSession(c *gin.Context)
	Confirm(c *gin.Context)
	ProviderCallback(c *gin.Context)
	Balance(c *gin.Context)
	Transactions(c *gin.Context)
}

type PaymentHandler struct {
	paymentUsecase usecase.IPaymentUsecase
	creditUsecase  usecase.ICreditUsecase
}

func NewPaymentHandler(paymentUsecase usecase.IPaymentUsecase, creditUsecase usecase.ICreditUsecase) IPaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase, creditUsecase: creditUsecase}
}

func (h *PaymentHandler) Topup(c *gin.Context) {
	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}
	method := model.PaymentMethod(req.Method)
	if method == model.MethodCreditBalance {
		// Topping up credit from credit is circular.
		writeError(c, model.ErrUnknownMethod)
		return
	}
	session, err := h.paymentUsecase.CreateSession(c.Request.Context(), callerID(c), req.Amount, method, model.PurposeCreditTopup, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, session)
}

func (h *PaymentHandler) Methods(c *gin.Context) {
	writeOK(c, h.paymentUsecase.Methods())
}

func (h *PaymentHandler) GetSession(c *gin.Context) {
	session, err := h.paymentUsecase.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if session.UserID != callerID(c) {
		writeError(c, model.ErrNotFound)
		return
	}
	writeOK(c, session)
}

// Confirm is the client-driven confirmation path: after the redirect or QR
// scan, the client asks the server to verify with the provider and settle.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	session, err := h.paymentUsecase.Confirm(c.Request.Context(), c.Param("sessionId"))
	if errors.Is(err, model.ErrAlreadyFinalized) {
		// Repeated confirmation of a paid session acks idempotently.
		writeOK(c, session)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, session)
}

// ProviderCallback is the unauthenticated webhook the provider hits when a
// session settles. Settlement truth comes from the provider status check,
// not from the callback body.
func (h *PaymentHandler) ProviderCallback(c *gin.Context) {
	session, err := h.paymentUsecase.Confirm(c.Request.Context(), c.Param("sessionId"))
	if errors.Is(err, model.ErrAlreadyFinalized) {
		writeOK(c, session)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, session)
}

func (h *PaymentHandler) Balance(c *gin.Context) {
	balance, err := h.creditUsecase.GetBalance(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, gin.H{"balance": balance})
}

func (h *PaymentHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.creditUsecase.ListTransactions(c.Request.Context(), callerID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, txs)
}
