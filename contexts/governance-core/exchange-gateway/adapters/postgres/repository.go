package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/exchange-gateway/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	outboxStatusFailed    = "failed"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveReceipt(ctx context.Context, receipt ports.PurchaseReceipt) error {
	row := receiptModelFromPort(receipt)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("exchange_repo_save_receipt_failed", err,
			"receipt_id", row.ID,
			"buyer", row.Buyer,
		)
	}
	return nil
}

func (r *Repository) ListReceiptsByBuyer(ctx context.Context, buyer string) ([]ports.PurchaseReceipt, error) {
	var rows []receiptModel
	if err := r.db.WithContext(ctx).
		Where("buyer = ?", strings.TrimSpace(buyer)).
		Order("purchased_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("exchange_repo_list_receipts_failed", err,
			"buyer", strings.TrimSpace(buyer),
		)
	}
	items := make([]ports.PurchaseReceipt, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := exchangeOutboxModel{
		OutboxID:  strings.TrimSpace(message.ID),
		EventType: strings.TrimSpace(message.EventType),
		Payload:   message.Payload,
		Status:    outboxStatusPending,
		CreatedAt: message.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("exchange_repo_append_outbox_failed", err,
			"message_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []exchangeOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("exchange_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			ID:          row.OutboxID,
			EventType:   row.EventType,
			Payload:     row.Payload,
			Status:      row.Status,
			RetryCount:  row.RetryCount,
			CreatedAt:   row.CreatedAt.UTC(),
			PublishedAt: row.PublishedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, messageID string, publishedAt time.Time) error {
	at := publishedAt.UTC()
	err := r.db.WithContext(ctx).Model(&exchangeOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(messageID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &at,
		}).Error
	if err != nil {
		return r.logError("exchange_repo_mark_outbox_published_failed", err, "message_id", messageID)
	}
	return nil
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, messageID string) error {
	err := r.db.WithContext(ctx).Model(&exchangeOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(messageID)).
		Updates(map[string]any{
			"status":      outboxStatusFailed,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
	if err != nil {
		return r.logError("exchange_repo_mark_outbox_failed_failed", err, "message_id", messageID)
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "governance-core/exchange-gateway",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("exchange repository operation failed", fields...)
	return err
}

type receiptModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Buyer         string    `gorm:"column:buyer"`
	PaymentAmount uint64    `gorm:"column:payment_amount"`
	MintedAmount  uint64    `gorm:"column:minted_amount"`
	Rate          uint64    `gorm:"column:rate"`
	PurchasedAt   time.Time `gorm:"column:purchased_at"`
}

func (receiptModel) TableName() string {
	return "exchange_receipts"
}

func receiptModelFromPort(receipt ports.PurchaseReceipt) receiptModel {
	return receiptModel{
		ID:            strings.TrimSpace(receipt.ReceiptID),
		Buyer:         strings.TrimSpace(receipt.Buyer),
		PaymentAmount: receipt.PaymentAmount,
		MintedAmount:  receipt.MintedAmount,
		Rate:          receipt.Rate,
		PurchasedAt:   receipt.PurchasedAt.UTC(),
	}
}

func (m receiptModel) toPort() ports.PurchaseReceipt {
	return ports.PurchaseReceipt{
		ReceiptID:     m.ID,
		Buyer:         m.Buyer,
		PaymentAmount: m.PaymentAmount,
		MintedAmount:  m.MintedAmount,
		Rate:          m.Rate,
		PurchasedAt:   m.PurchasedAt.UTC(),
	}
}

type exchangeOutboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (exchangeOutboxModel) TableName() string {
	return "exchange_outbox"
}

var _ ports.ReceiptRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
