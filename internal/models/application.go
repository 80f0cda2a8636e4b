package models

import (
	"encoding/json"
	"time"
)

// RuleApplication is the durable record that a rule's actions were executed
// against a message. Rows are append-only: one per message/rule-set
// application, created only when at least one action succeeded.
type RuleApplication struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"message_id"`
	RuleID    string    `gorm:"not null;size:255" json:"rule_id"`
	RuleName  string    `gorm:"size:255" json:"rule_name"`
	Actions   string    `gorm:"not null" json:"actions"` // JSON array of succeeded action tokens
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}

// TableName returns the table name for RuleApplication
func (RuleApplication) TableName() string {
	return "rule_applications"
}

// ActionTokens decodes the stored actions JSON.
func (r *RuleApplication) ActionTokens() []string {
	var tokens []string
	if err := json.Unmarshal([]byte(r.Actions), &tokens); err != nil {
		return nil
	}
	return tokens
}

// SetActionTokens encodes the succeeded action tokens for storage.
func (r *RuleApplication) SetActionTokens(tokens []string) error {
	encoded, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	r.Actions = string(encoded)
	return nil
}
