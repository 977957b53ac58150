package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/usecase/webhook"
)

// WebhookGormStore applies every provider event in one database transaction,
// ledger row included.
type WebhookGormStore struct {
	db *gorm.DB
}

func NewWebhookGormStore(db *gorm.DB) *WebhookGormStore {
	return &WebhookGormStore{db: db}
}

func (s *WebhookGormStore) Transact(ctx context.Context, fn func(tx webhook.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&webhookTx{db: tx})
	})
}

type webhookTx struct {
	db *gorm.DB
}

type match struct {
	value string
	query string
}

// firstLocked returns the first row matched by the non-empty keys, in order,
// locked for update.
func firstLocked[T any](db *gorm.DB, matches ...match) (*T, error) {
	for _, m := range matches {
		if m.value == "" {
			continue
		}
		var out T
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(m.query, map[string]any{"v": m.value}).
			First(&out).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
	return nil, nil
}

func (t *webhookTx) MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WebhookEvent{EventID: eventID, Type: eventType, ProcessedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Bookings / appointments
// --------------------------------------------------

func (t *webhookTx) FindBooking(ctx context.Context, l webhook.Lookup) (*models.Booking, error) {
	return firstLocked[models.Booking](t.db.WithContext(ctx),
		match{l.IntentID, "payment_intent_id = @v OR due_payment_intent_id = @v"},
		match{l.SessionID, "checkout_session_id = @v"},
		match{l.MetadataID, "id = @v"},
	)
}

func (t *webhookTx) SaveBooking(ctx context.Context, b *models.Booking) error {
	return t.db.WithContext(ctx).Save(b).Error
}

func (t *webhookTx) FindAppointment(ctx context.Context, l webhook.Lookup) (*models.Appointment, error) {
	return firstLocked[models.Appointment](t.db.WithContext(ctx),
		match{l.IntentID, "payment_intent_id = @v"},
		match{l.SessionID, "checkout_session_id = @v"},
		match{l.MetadataID, "id = @v"},
	)
}

func (t *webhookTx) SaveAppointment(ctx context.Context, ap *models.Appointment) error {
	return t.db.WithContext(ctx).Save(ap).Error
}

// --------------------------------------------------
// Tickets
// --------------------------------------------------

func (t *webhookTx) FindPurchase(ctx context.Context, l webhook.Lookup) (*models.TicketPurchase, error) {
	return firstLocked[models.TicketPurchase](t.db.WithContext(ctx),
		match{l.IntentID, "payment_intent_id = @v"},
		match{l.MetadataID, "id = @v"},
	)
}

func (t *webhookTx) SavePurchase(ctx context.Context, p *models.TicketPurchase) error {
	return t.db.WithContext(ctx).Save(p).Error
}

func (t *webhookTx) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var ev models.Event
	err := t.db.WithContext(ctx).First(&ev, "id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (t *webhookTx) CreditTickets(ctx context.Context, eventID string, quantity int) (bool, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND tickets_sold + ? <= maximum_number_of_tickets", eventID, quantity).
		UpdateColumn("tickets_sold", gorm.Expr("tickets_sold + ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Refunds
// --------------------------------------------------

func (t *webhookTx) FindRefund(ctx context.Context, refundID, intentID string) (*models.RefundLog, error) {
	db := t.db.WithContext(ctx)

	if refundID != "" {
		log, err := firstLocked[models.RefundLog](db, match{refundID, "refund_id = @v"})
		if err != nil || log != nil {
			return log, err
		}
	}
	if intentID == "" {
		return nil, nil
	}

	var log models.RefundLog
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"payment_intent_id = ? AND refund_id IS NULL AND status IN ?",
			intentID,
			[]string{string(payment.RefundRequested), string(payment.RefundPending)},
		).
		Order("created_at DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (t *webhookTx) SaveRefund(ctx context.Context, log *models.RefundLog) error {
	return t.db.WithContext(ctx).Save(log).Error
}

func (t *webhookTx) MarkRefunded(ctx context.Context, intentID string) error {
	db := t.db.WithContext(ctx)
	locked := clause.Locking{Strength: "UPDATE"}

	var bookings []models.Booking
	if err := db.Clauses(locked).
		Where("payment_intent_id = ? OR due_payment_intent_id = ?", intentID, intentID).
		Find(&bookings).Error; err != nil {
		return err
	}
	for _, b := range bookings {
		if err := t.refundIfCovered(db, &models.Booking{}, b.ID, b.ChargedOnline(), b.PaymentIntentID, b.DuePaymentIntentID); err != nil {
			return err
		}
	}

	var appointments []models.Appointment
	if err := db.Clauses(locked).Where("payment_intent_id = ?", intentID).Find(&appointments).Error; err != nil {
		return err
	}
	for _, ap := range appointments {
		if err := t.refundIfCovered(db, &models.Appointment{}, ap.ID, ap.TotalAmount, ap.PaymentIntentID); err != nil {
			return err
		}
	}

	var purchases []models.TicketPurchase
	if err := db.Clauses(locked).Where("payment_intent_id = ?", intentID).Find(&purchases).Error; err != nil {
		return err
	}
	for _, p := range purchases {
		if err := t.refundIfCovered(db, &models.TicketPurchase{}, p.ID, p.TotalAmount, p.PaymentIntentID); err != nil {
			return err
		}
	}
	return nil
}

// refundIfCovered sets payment_status to refunded on the row id of model
// once the succeeded refunds across intentIDs reach charged.
func (t *webhookTx) refundIfCovered(db *gorm.DB, model any, id string, charged float64, intentIDs ...string) error {
	ids := make([]string, 0, len(intentIDs))
	for _, v := range intentIDs {
		if v != "" {
			ids = append(ids, v)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var refunded float64
	if err := db.Model(&models.RefundLog{}).
		Where("payment_intent_id IN ? AND status = ?", ids, string(payment.RefundSucceeded)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&refunded).Error; err != nil {
		return err
	}
	if !payment.FullyRefunded(refunded, charged) {
		return nil
	}
	return db.Model(model).
		Where("id = ?", id).
		UpdateColumn("payment_status", string(payment.StatusRefunded)).Error
}

var (
	_ webhook.Store = (*WebhookGormStore)(nil)
	_ webhook.Tx    = (*webhookTx)(nil)
)
