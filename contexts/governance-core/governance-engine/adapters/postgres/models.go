package postgresadapter

import (
	"strings"
	"time"

	"agora/contexts/governance-core/governance-engine/domain/entities"
)

type proposalModel struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Proposer      string    `gorm:"column:proposer"`
	Description   string    `gorm:"column:description"`
	ForWeight     uint64    `gorm:"column:for_weight"`
	AgainstWeight uint64    `gorm:"column:against_weight"`
	Executed      bool      `gorm:"column:executed"`
	Approved      bool      `gorm:"column:approved"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

func (m proposalModel) toEntity() entities.Proposal {
	return entities.Proposal{
		ID:            m.ID,
		Proposer:      m.Proposer,
		Description:   m.Description,
		ForWeight:     m.ForWeight,
		AgainstWeight: m.AgainstWeight,
		Executed:      m.Executed,
		Approved:      m.Approved,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type ballotModel struct {
	ProposalID uint64    `gorm:"column:proposal_id;primaryKey;autoIncrement:false"`
	Voter      string    `gorm:"column:voter;primaryKey"`
	InSupport  bool      `gorm:"column:in_support"`
	Weight     uint64    `gorm:"column:weight"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "governance_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ProposalID: ballot.ProposalID,
		Voter:      strings.TrimSpace(ballot.Voter),
		InSupport:  ballot.InSupport,
		Weight:     ballot.Weight,
		CastAt:     ballot.CastAt.UTC(),
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		ProposalID: m.ProposalID,
		Voter:      m.Voter,
		InSupport:  m.InSupport,
		Weight:     m.Weight,
		CastAt:     m.CastAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}
