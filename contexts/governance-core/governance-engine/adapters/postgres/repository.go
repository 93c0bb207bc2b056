package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) CreateProposal(ctx context.Context, proposer string, description string, now time.Time) (entities.Proposal, error) {
	row := proposalModel{
		Proposer:    strings.TrimSpace(proposer),
		Description: description,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	// The bigserial primary key is the dense sequential proposal identifier.
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Proposal{}, r.logError("governance_repo_create_proposal_failed", err,
			"proposer", strings.TrimSpace(proposer),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("governance_repo_get_proposal_failed", err, "proposal_id", proposalID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProposals(ctx context.Context) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_proposals_failed", err)
	}
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasVoted(ctx context.Context, proposalID uint64, voter string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ballotModel{}).
		Where("proposal_id = ?", proposalID).
		Where("voter = ?", strings.TrimSpace(voter)).
		Count(&count).Error
	if err != nil {
		return false, r.logError("governance_repo_has_voted_failed", err,
			"proposal_id", proposalID,
			"voter", strings.TrimSpace(voter),
		)
	}
	return count > 0, nil
}

// RecordVote inserts the vote marker and accumulates the tally inside one
// transaction. The unique (proposal_id, voter) index turns a duplicate vote
// into ErrAlreadyVoted with the tally untouched.
func (r *Repository) RecordVote(ctx context.Context, ballot entities.Ballot) (entities.Proposal, error) {
	var updated proposalModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row proposalModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ballot.ProposalID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrProposalNotFound
			}
			return err
		}
		if row.Executed {
			return domainerrors.ErrAlreadyExecuted
		}

		marker := ballotModelFromEntity(ballot)
		if err := tx.Create(&marker).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return err
		}

		column := "against_weight"
		if ballot.InSupport {
			column = "for_weight"
		}
		update := tx.Model(&proposalModel{}).
			Where("id = ? AND executed = ?", ballot.ProposalID, false).
			Updates(map[string]any{
				column:       gorm.Expr(column+" + ?", ballot.Weight),
				"updated_at": ballot.CastAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrAlreadyExecuted
		}
		return tx.Where("id = ?", ballot.ProposalID).First(&updated).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrProposalNotFound) ||
			errors.Is(err, domainerrors.ErrAlreadyExecuted) ||
			errors.Is(err, domainerrors.ErrAlreadyVoted) {
			return entities.Proposal{}, err
		}
		return entities.Proposal{}, r.logError("governance_repo_record_vote_failed", err,
			"proposal_id", ballot.ProposalID,
			"voter", strings.TrimSpace(ballot.Voter),
		)
	}
	return updated.toEntity(), nil
}

// FinalizeProposal flips executed exactly once. The conditional update keeps
// a second finalization from ever overwriting the recorded outcome.
func (r *Repository) FinalizeProposal(ctx context.Context, proposalID uint64, approved bool, now time.Time) (entities.Proposal, error) {
	var finalized proposalModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&proposalModel{}).
			Where("id = ? AND executed = ?", proposalID, false).
			Updates(map[string]any{
				"executed":   true,
				"approved":   approved,
				"updated_at": now.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			var existing proposalModel
			if err := tx.Where("id = ?", proposalID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrProposalNotFound
				}
				return err
			}
			return domainerrors.ErrAlreadyExecuted
		}
		return tx.Where("id = ?", proposalID).First(&finalized).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrProposalNotFound) || errors.Is(err, domainerrors.ErrAlreadyExecuted) {
			return entities.Proposal{}, err
		}
		return entities.Proposal{}, r.logError("governance_repo_finalize_proposal_failed", err,
			"proposal_id", proposalID,
		)
	}
	return finalized.toEntity(), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModel{
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
		return r.logError("governance_repo_append_outbox_failed", err,
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
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_pending_outbox_failed", err)
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
	err := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(messageID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &at,
		}).Error
	if err != nil {
		return r.logError("governance_repo_mark_outbox_published_failed", err, "message_id", messageID)
	}
	return nil
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, messageID string) error {
	err := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(messageID)).
		Updates(map[string]any{
			"status":      outboxStatusFailed,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
	if err != nil {
		return r.logError("governance_repo_mark_outbox_failed_failed", err, "message_id", messageID)
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
		"module", "governance-core/governance-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
