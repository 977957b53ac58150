package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	ucBooking "github.com/BruksfildServices01/service-marketplace/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingUseCases struct {
	Create   *ucBooking.CreateBooking
	Accept   *ucBooking.AcceptBooking
	Reject   *ucBooking.RejectBooking
	Cancel   *ucBooking.CancelBooking
	Start    *ucBooking.StartBooking
	Complete *ucBooking.CompleteBooking
	Due      *ucBooking.RequestDuePayment
	Offline  *ucBooking.MarkOfflinePaid
	Review   *ucBooking.ReviewBooking
	Queries  *ucBooking.Queries
}

type BookingHandler struct {
	uc     BookingUseCases
	clock  timezone.Clock
	logger *zap.Logger
}

func NewBookingHandler(uc BookingUseCases, clock timezone.Clock, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{uc: uc, clock: clock, logger: logger}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	ServiceID   string  `json:"service_id" binding:"required"`
	BookingDate string  `json:"booking_date" binding:"required"`
	DownPayment float64 `json:"down_payment"`
	Notes       string  `json:"notes" binding:"max=500"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ======================================================
// USER
// ======================================================

// Create returns the create handler for services of one owner kind.
func (h *BookingHandler) Create(ownerKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c, err)
			return
		}

		date, err := parseBookingDate(req.BookingDate, h.clock().Location())
		if err != nil {
			respond(c, h.logger, err)
			return
		}

		b, err := h.uc.Create.Execute(c.Request.Context(), ucBooking.CreateBookingInput{
			Identity:    middleware.IdentityFrom(c),
			OwnerKind:   ownerKind,
			ServiceID:   req.ServiceID,
			BookingDate: date,
			DownPayment: req.DownPayment,
			Notes:       req.Notes,
		})
		if err != nil {
			respond(c, h.logger, err)
			return
		}

		httpresp.Created(c, b)
	}
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	out, err := h.uc.Queries.ListForUser(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.List(c, out)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.uc.Queries.Get(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.uc.Cancel.Execute(c.Request.Context(), h.transition(c, req.Reason))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.Message(c, http.StatusOK, "Booking cancelled", b)
}

func (h *BookingHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	b, err := h.uc.Review.Execute(c.Request.Context(), ucBooking.ReviewInput{
		Identity:  middleware.IdentityFrom(c),
		BookingID: c.Param("id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}

// ======================================================
// OWNER
// ======================================================

func (h *BookingHandler) transition(c *gin.Context, reason string) ucBooking.TransitionInput {
	return ucBooking.TransitionInput{
		Identity:  middleware.IdentityFrom(c),
		BookingID: c.Param("id"),
		Reason:    reason,
	}
}

func (h *BookingHandler) ListForOwner(c *gin.Context) {
	out, err := h.uc.Queries.ListForOwner(c.Request.Context(), middleware.IdentityFrom(c), c.Query("status"))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.List(c, out)
}

func (h *BookingHandler) Accept(c *gin.Context) {
	res, err := h.uc.Accept.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, res)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.uc.Reject.Execute(c.Request.Context(), h.transition(c, req.Reason))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Start(c *gin.Context) {
	b, err := h.uc.Start.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	b, err := h.uc.Complete.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) RequestDue(c *gin.Context) {
	res, err := h.uc.Due.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, res)
}

func (h *BookingHandler) MarkOfflinePaid(c *gin.Context) {
	b, err := h.uc.Offline.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, b)
}
