package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

type RefundHandler struct {
	payments *paymentuc.Orchestrator
	logger   *zap.Logger
}

func NewRefundHandler(payments *paymentuc.Orchestrator, logger *zap.Logger) *RefundHandler {
	return &RefundHandler{payments: payments, logger: logger}
}

type RefundRequest struct {
	PaymentIntentID string            `json:"payment_intent_id" binding:"required"`
	Amount          *float64          `json:"amount"`
	Reason          string            `json:"reason"`
	Metadata        map[string]string `json:"metadata"`
}

func (h *RefundHandler) Create(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	meta := map[string]string{"requestedBy": middleware.IdentityFrom(c).Role}
	for k, v := range req.Metadata {
		meta[k] = v
	}

	log, err := h.payments.RequestRefund(c.Request.Context(), paymentuc.RefundInput{
		PaymentIntentID: req.PaymentIntentID,
		Amount:          req.Amount,
		Reason:          req.Reason,
		Metadata:        meta,
	})
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.Created(c, log)
}
