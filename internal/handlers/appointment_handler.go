package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/service-marketplace/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentUseCases struct {
	Create       *ucAppointment.CreateAppointment
	Accept       *ucAppointment.AcceptAppointment
	Reject       *ucAppointment.RejectAppointment
	Cancel       *ucAppointment.Transition
	Start        *ucAppointment.Transition
	Complete     *ucAppointment.Transition
	NoShow       *ucAppointment.Transition
	Reschedule   *ucAppointment.RescheduleAppointment
	Availability *ucAppointment.GetAvailability
	Review       *ucAppointment.ReviewAppointment
	Queries      *ucAppointment.Queries
}

type AppointmentHandler struct {
	uc     AppointmentUseCases
	logger *zap.Logger
}

func NewAppointmentHandler(uc AppointmentUseCases, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{uc: uc, logger: logger}
}

// ======================================================
// REQUESTS
// ======================================================

type TimeSlotRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type CreateAppointmentRequest struct {
	ServiceID       string          `json:"service_id" binding:"required"`
	SlotID          string          `json:"slot_id" binding:"required"`
	AppointmentDate string          `json:"appointment_date" binding:"required"`
	TimeSlot        TimeSlotRequest `json:"time_slot" binding:"required"`
	DownPayment     float64         `json:"down_payment"`
	Notes           string          `json:"notes" binding:"max=500"`
}

type RescheduleRequest struct {
	AppointmentDate string          `json:"appointment_date" binding:"required"`
	TimeSlot        TimeSlotRequest `json:"time_slot" binding:"required"`
	Note            string          `json:"note" binding:"max=500"`
}

// ======================================================
// USER
// ======================================================

func (h *AppointmentHandler) Create(ownerKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAppointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c, err)
			return
		}

		ap, err := h.uc.Create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
			Identity:        middleware.IdentityFrom(c),
			OwnerKind:       ownerKind,
			ServiceID:       req.ServiceID,
			SlotID:          req.SlotID,
			AppointmentDate: req.AppointmentDate,
			StartTime:       req.TimeSlot.StartTime,
			EndTime:         req.TimeSlot.EndTime,
			DownPayment:     req.DownPayment,
			Notes:           req.Notes,
		})
		if err != nil {
			respond(c, h.logger, err)
			return
		}

		httpresp.Created(c, ap)
	}
}

func (h *AppointmentHandler) AvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "invalid_date", "date query parameter is required")
		return
	}

	av, err := h.uc.Availability.Execute(c.Request.Context(), c.Param("serviceId"), date)
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, av)
}

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	out, err := h.uc.Queries.ListForUser(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.List(c, out)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, err := h.uc.Queries.Get(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ap, err := h.uc.Review.Execute(c.Request.Context(), ucAppointment.ReviewInput{
		Identity:      middleware.IdentityFrom(c),
		AppointmentID: c.Param("id"),
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *AppointmentHandler) transition(c *gin.Context, reason string) ucAppointment.TransitionInput {
	return ucAppointment.TransitionInput{
		Identity:      middleware.IdentityFrom(c),
		AppointmentID: c.Param("id"),
		Reason:        reason,
	}
}

// Simple wraps a transition that only needs the id and an optional reason.
func (h *AppointmentHandler) Simple(uc *ucAppointment.Transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReasonRequest
		_ = c.ShouldBindJSON(&req)

		ap, err := uc.Execute(c.Request.Context(), h.transition(c, req.Reason))
		if err != nil {
			respond(c, h.logger, err)
			return
		}
		httpresp.OK(c, ap)
	}
}

func (h *AppointmentHandler) Cancel(c *gin.Context)   { h.Simple(h.uc.Cancel)(c) }
func (h *AppointmentHandler) Start(c *gin.Context)    { h.Simple(h.uc.Start)(c) }
func (h *AppointmentHandler) Complete(c *gin.Context) { h.Simple(h.uc.Complete)(c) }
func (h *AppointmentHandler) NoShow(c *gin.Context)   { h.Simple(h.uc.NoShow)(c) }

func (h *AppointmentHandler) Accept(c *gin.Context) {
	res, err := h.uc.Accept.Execute(c.Request.Context(), h.transition(c, ""))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, res)
}

func (h *AppointmentHandler) Reject(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	ap, err := h.uc.Reject.Execute(c.Request.Context(), h.transition(c, req.Reason))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ap, err := h.uc.Reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleInput{
		Identity:        middleware.IdentityFrom(c),
		AppointmentID:   c.Param("id"),
		AppointmentDate: req.AppointmentDate,
		StartTime:       req.TimeSlot.StartTime,
		EndTime:         req.TimeSlot.EndTime,
		Note:            req.Note,
	})
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.Message(c, http.StatusOK, "Appointment rescheduled", ap)
}

// ======================================================
// OWNER LISTS
// ======================================================

func (h *AppointmentHandler) ListForOwner(c *gin.Context) {
	out, err := h.uc.Queries.ListForOwner(
		c.Request.Context(),
		middleware.IdentityFrom(c),
		c.Query("status"),
		c.Query("date"),
	)
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.List(c, out)
}
