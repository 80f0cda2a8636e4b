package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sortdesk/mailsift-backend/internal/models"
	"gorm.io/gorm"
)

// ApplicationRepository records which rules were applied to which messages
type ApplicationRepository interface {
	// Record appends an application record for a message/rule pair.
	// The write is transactional; records are never mutated afterwards.
	Record(ctx context.Context, messageID uint, ruleID, ruleName string, actionTokens []string) (*models.RuleApplication, error)
	ListByMessage(ctx context.Context, messageID uint) ([]models.RuleApplication, error)
}

// applicationRepository implements ApplicationRepository using GORM
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new ApplicationRepository instance
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Record creates an append-only application record with a generated ID.
func (r *applicationRepository) Record(ctx context.Context, messageID uint, ruleID, ruleName string, actionTokens []string) (*models.RuleApplication, error) {
	record := &models.RuleApplication{
		ID:        uuid.NewString(),
		MessageID: messageID,
		RuleID:    ruleID,
		RuleName:  ruleName,
		AppliedAt: time.Now().UTC(),
	}
	if err := record.SetActionTokens(actionTokens); err != nil {
		return nil, fmt.Errorf("failed to encode action tokens: %w", err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record rule application: %w", err)
	}
	return record, nil
}

// ListByMessage returns all application records for a message, oldest first.
func (r *applicationRepository) ListByMessage(ctx context.Context, messageID uint) ([]models.RuleApplication, error) {
	var records []models.RuleApplication
	result := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("applied_at ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list rule applications: %w", result.Error)
	}
	return records, nil
}
