package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sortdesk/mailsift-backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// Save stores a message keyed by its external ID. Saving an external
	// ID that already exists is a no-op that returns the stored row
	// unchanged.
	Save(ctx context.Context, message *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Message, error)
	// List returns messages most-recent-first by received time.
	List(ctx context.Context, limit, offset int) ([]models.Message, int64, error)
	SetReadFlag(ctx context.Context, id uint, isRead bool) error
	Count(ctx context.Context) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Save inserts the message unless its external ID is already stored.
func (r *messageRepository) Save(ctx context.Context, message *models.Message) (*models.Message, error) {
	var existing models.Message
	err := r.db.WithContext(ctx).Where("external_id = ?", message.ExternalID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		// A concurrent ingester may have won the insert race; return its row.
		if isDuplicateKeyError(err) {
			if lookupErr := r.db.WithContext(ctx).Where("external_id = ?", message.ExternalID).First(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return message, nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// GetByExternalID retrieves a message by its upstream identifier
func (r *messageRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by external ID: %w", result.Error)
	}
	return &message, nil
}

// List retrieves messages with pagination, ordered by received_at descending
func (r *messageRepository) List(ctx context.Context, limit, offset int) ([]models.Message, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	query := r.db.WithContext(ctx).Order("received_at DESC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}

// SetReadFlag updates a message's read flag
func (r *messageRepository) SetReadFlag(ctx context.Context, id uint, isRead bool) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", isRead)
	if result.Error != nil {
		return fmt.Errorf("failed to update read flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of stored messages
func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count messages: %w", result.Error)
	}
	return count, nil
}
