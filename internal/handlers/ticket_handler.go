package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	ucTicket "github.com/BruksfildServices01/service-marketplace/internal/usecase/ticket"
)

type TicketHandler struct {
	create *ucTicket.CreatePurchase
	get    *ucTicket.GetPurchase
	logger *zap.Logger
}

func NewTicketHandler(create *ucTicket.CreatePurchase, get *ucTicket.GetPurchase, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{create: create, get: get, logger: logger}
}

type PurchaseRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *TicketHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	res, err := h.create.Execute(c.Request.Context(), ucTicket.PurchaseInput{
		Identity: middleware.IdentityFrom(c),
		EventID:  c.Param("id"),
		Quantity: req.Quantity,
	})
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.Created(c, res)
}

func (h *TicketHandler) Get(c *gin.Context) {
	p, err := h.get.Execute(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, p)
}
