package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	"github.com/BruksfildServices01/service-marketplace/internal/config"
	"github.com/BruksfildServices01/service-marketplace/internal/handlers"
	infraRepo "github.com/BruksfildServices01/service-marketplace/internal/infra/repository"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/service-marketplace/internal/usecase/appointment"
	ucBooking "github.com/BruksfildServices01/service-marketplace/internal/usecase/booking"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
	ucStats "github.com/BruksfildServices01/service-marketplace/internal/usecase/stats"
	ucTicket "github.com/BruksfildServices01/service-marketplace/internal/usecase/ticket"
	"github.com/BruksfildServices01/service-marketplace/internal/usecase/webhook"
)

// Dependencies are the process-wide singletons built in main.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *zap.Logger
	Clock    timezone.Clock
	Gateway  *payments.StripeProvider
	Locker   ucAppointment.SlotLocker
	Audit    *audit.Dispatcher
	AuditLog *audit.Logger
	Archiver webhook.Archiver
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	clock := deps.Clock
	logger := deps.Logger

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(deps.DB)
	appointmentRepo := infraRepo.NewAppointmentGormRepository(deps.DB)
	ticketRepo := infraRepo.NewTicketGormRepository(deps.DB)
	refundRepo := infraRepo.NewRefundGormRepository(deps.DB)
	webhookStore := infraRepo.NewWebhookGormStore(deps.DB)

	orchestrator := paymentuc.NewOrchestrator(
		deps.Gateway,
		refundRepo,
		paymentuc.Settings{
			SuccessURL: cfg.Stripe.CheckoutSuccessURL,
			CancelURL:  cfg.Stripe.CheckoutCancelURL,
			Currency:   cfg.Stripe.Currency,
		},
		logger,
		clock,
	)

	// ======================================================
	// USE CASES: BOOKINGS
	// ======================================================
	bookingHandler := handlers.NewBookingHandler(handlers.BookingUseCases{
		Create:   ucBooking.NewCreateBooking(bookingRepo, deps.Audit, clock),
		Accept:   ucBooking.NewAcceptBooking(bookingRepo, orchestrator, deps.Audit, clock),
		Reject:   ucBooking.NewRejectBooking(bookingRepo, orchestrator, deps.Audit, clock),
		Cancel:   ucBooking.NewCancelBooking(bookingRepo, deps.Audit, clock),
		Start:    ucBooking.NewStartBooking(bookingRepo, deps.Audit, clock),
		Complete: ucBooking.NewCompleteBooking(bookingRepo, deps.Audit, clock),
		Due:      ucBooking.NewRequestDuePayment(bookingRepo, orchestrator, deps.Audit),
		Offline:  ucBooking.NewMarkOfflinePaid(bookingRepo, deps.Audit, clock),
		Review:   ucBooking.NewReviewBooking(bookingRepo, deps.Audit, clock),
		Queries:  ucBooking.NewQueries(bookingRepo),
	}, clock, logger)

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(handlers.AppointmentUseCases{
		Create:       ucAppointment.NewCreateAppointment(appointmentRepo, deps.Locker, deps.Audit, clock),
		Accept:       ucAppointment.NewAcceptAppointment(appointmentRepo, orchestrator, deps.Audit, clock),
		Reject:       ucAppointment.NewRejectAppointment(appointmentRepo, orchestrator, deps.Audit, clock),
		Cancel:       ucAppointment.NewCancelAppointment(appointmentRepo, deps.Audit, clock),
		Start:        ucAppointment.NewStartAppointment(appointmentRepo, deps.Audit, clock),
		Complete:     ucAppointment.NewCompleteAppointment(appointmentRepo, deps.Audit, clock),
		NoShow:       ucAppointment.NewNoShowAppointment(appointmentRepo, deps.Audit, clock),
		Reschedule:   ucAppointment.NewRescheduleAppointment(appointmentRepo, deps.Locker, deps.Audit, clock),
		Availability: ucAppointment.NewGetAvailability(appointmentRepo, clock),
		Review:       ucAppointment.NewReviewAppointment(appointmentRepo, deps.Audit, clock),
		Queries:      ucAppointment.NewQueries(appointmentRepo),
	}, logger)

	// ======================================================
	// USE CASES: TICKETS, STATS, WEBHOOK
	// ======================================================
	ticketHandler := handlers.NewTicketHandler(
		ucTicket.NewCreatePurchase(ticketRepo, orchestrator, deps.Audit, clock),
		ucTicket.NewGetPurchase(ticketRepo),
		logger,
	)

	statsHandler := handlers.NewStatsHandler(
		ucStats.NewGetDashboard(bookingRepo, appointmentRepo, clock),
		logger,
	)

	opts := []webhook.Option{webhook.WithAudit(deps.Audit)}
	if deps.Archiver != nil {
		opts = append(opts, webhook.WithArchiver(deps.Archiver))
	}
	reconciler := webhook.NewReconciler(deps.Gateway, webhookStore, orchestrator, logger, clock, opts...)
	webhookHandler := handlers.NewWebhookHandler(reconciler, logger)

	refundHandler := handlers.NewRefundHandler(orchestrator, logger)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.AuditLog, logger)

	// ======================================================
	// WEBHOOKS (raw body, no auth)
	// ======================================================
	r.POST("/webhooks/stripe", webhookHandler.Stripe)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))

	// ------------------------------
	// USER
	// ------------------------------
	user := api.Group("")
	user.Use(middleware.RequireRole(middleware.RoleUser))
	{
		user.POST("/bookings", bookingHandler.Create(models.OwnerKindProvider))
		user.POST("/business-owner-bookings", bookingHandler.Create(models.OwnerKindBusinessOwner))
		user.GET("/bookings", bookingHandler.ListMine)
		user.GET("/bookings/:id", bookingHandler.Get)
		user.PATCH("/bookings/:id/cancel", bookingHandler.Cancel)
		user.POST("/bookings/:id/review", bookingHandler.Review)

		user.POST("/appointments", appointmentHandler.Create(models.OwnerKindProvider))
		user.POST("/business-owner-appointments", appointmentHandler.Create(models.OwnerKindBusinessOwner))
		user.GET("/appointments", appointmentHandler.ListMine)
		user.GET("/appointments/:id", appointmentHandler.Get)
		user.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
		user.POST("/appointments/:id/review", appointmentHandler.Review)

		user.POST("/events/:id/tickets", ticketHandler.Purchase)
		user.GET("/tickets/:id", ticketHandler.Get)
	}

	// Slot availability is readable by any signed-in caller.
	api.GET("/appointments/available-slots/:serviceId", appointmentHandler.AvailableSlots)

	// ------------------------------
	// OWNERS
	// ------------------------------
	registerOwner(api.Group("/providers", middleware.RequireRole(middleware.RoleProvider)),
		bookingHandler, appointmentHandler, statsHandler, auditLogsHandler)
	registerOwner(api.Group("/business-owner", middleware.RequireRole(middleware.RoleBusinessOwner)),
		bookingHandler, appointmentHandler, statsHandler, auditLogsHandler)

	// ------------------------------
	// ADMIN
	// ------------------------------
	admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/refunds", refundHandler.Create)
	}
}

// registerOwner mounts the owner surface. Providers and business owners share
// it; ownership is checked against the token identity in the use cases.
func registerOwner(
	g *gin.RouterGroup,
	bookings *handlers.BookingHandler,
	appointments *handlers.AppointmentHandler,
	stats *handlers.StatsHandler,
	auditLogs *handlers.AuditLogsHandler,
) {
	g.GET("/bookings", bookings.ListForOwner)
	g.PATCH("/bookings/:id/accept", bookings.Accept)
	g.PATCH("/bookings/:id/reject", bookings.Reject)
	g.PATCH("/bookings/:id/start", bookings.Start)
	g.PATCH("/bookings/:id/complete", bookings.Complete)
	g.POST("/bookings/:id/request-due", bookings.RequestDue)
	g.POST("/bookings/:id/mark-offline-paid", bookings.MarkOfflinePaid)

	g.GET("/appointments", appointments.ListForOwner)
	g.PATCH("/appointments/:id/accept", appointments.Accept)
	g.PATCH("/appointments/:id/reject", appointments.Reject)
	g.PATCH("/appointments/:id/start", appointments.Start)
	g.PATCH("/appointments/:id/complete", appointments.Complete)
	g.PATCH("/appointments/:id/no-show", appointments.NoShow)
	g.PATCH("/appointments/:id/reschedule", appointments.Reschedule)

	g.GET("/stats", stats.Dashboard)
	g.GET("/audit-logs", auditLogs.List)
}
