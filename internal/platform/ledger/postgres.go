package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres is the database-backed balance ledger. Mint, burn, and transfer
// run in transactions with row-level locks so each call commits atomically.
type Postgres struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewPostgres(db *gorm.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (l *Postgres) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var row balanceModel
	err := l.db.WithContext(ctx).
		Where("account = ?", normalize(account)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, l.logError("ledger_balance_of_failed", err, "account", normalize(account))
	}
	return row.Balance, nil
}

func (l *Postgres) TotalSupply(ctx context.Context) (uint64, error) {
	var total uint64
	err := l.db.WithContext(ctx).Model(&balanceModel{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).
		Error
	if err != nil {
		return 0, l.logError("ledger_total_supply_failed", err)
	}
	return total, nil
}

func (l *Postgres) Mint(ctx context.Context, account string, amount uint64) error {
	now := time.Now().UTC()
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("account_balances.balance + ?", amount),
			"updated_at": now,
		}),
	}).Create(&balanceModel{
		Account:   normalize(account),
		Balance:   amount,
		UpdatedAt: now,
	}).Error
	if err != nil {
		return l.logError("ledger_mint_failed", err, "account", normalize(account), "amount", amount)
	}
	return nil
}

func (l *Postgres) Burn(ctx context.Context, account string, amount uint64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row balanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account = ?", normalize(account)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientBalance
			}
			return l.logError("ledger_burn_lookup_failed", err, "account", normalize(account))
		}
		if row.Balance < amount {
			return ErrInsufficientBalance
		}
		return tx.Model(&balanceModel{}).
			Where("account = ?", row.Account).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", amount),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (l *Postgres) Transfer(ctx context.Context, from string, to string, amount uint64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row balanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account = ?", normalize(from)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientBalance
			}
			return err
		}
		if row.Balance < amount {
			return ErrInsufficientBalance
		}
		if err := tx.Model(&balanceModel{}).
			Where("account = ?", row.Account).
			Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":    gorm.Expr("account_balances.balance + ?", amount),
				"updated_at": now,
			}),
		}).Create(&balanceModel{
			Account:   normalize(to),
			Balance:   amount,
			UpdatedAt: now,
		}).Error
	})
}

func (l *Postgres) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "internal/platform/ledger",
		"layer", "platform",
		"error", err.Error(),
	}, args...)
	l.logger.Error("ledger operation failed", fields...)
	return err
}

type balanceModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Balance   uint64    `gorm:"column:balance"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (balanceModel) TableName() string {
	return "account_balances"
}
