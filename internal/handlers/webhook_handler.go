package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/usecase/webhook"
)

// maxWebhookBody matches the payload ceiling Stripe documents.
const maxWebhookBody = 65536

type WebhookHandler struct {
	reconciler *webhook.Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(reconciler *webhook.Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, logger: logger}
}

// Stripe reads the body untouched; the signature covers the exact bytes.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.Write(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload exceeds 64 KiB")
			return
		}
		httperr.BadRequest(c, "invalid_body", "could not read request body")
		return
	}

	outcome, err := h.reconciler.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("stripe webhook signature rejected", zap.Error(err))
			httperr.BadRequest(c, "invalid_signature", "webhook signature verification failed")
			return
		}
		h.logger.Error("stripe webhook failed", zap.Error(err))
		httperr.Internal(c, "webhook_failed", "webhook processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
