package models

import (
	"encoding/json"
	"time"
)

// Message represents a stored inbox message ingested from Gmail or SMTP.
// ExternalID is the upstream message identifier and is unique across the
// store; ingesting the same external ID twice is a no-op.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"not null;uniqueIndex;size:255" json:"external_id"`
	ThreadID    string    `gorm:"size:255" json:"thread_id,omitempty"`
	FromAddress string    `gorm:"not null;index;size:255" json:"from"`
	ToAddress   string    `gorm:"not null" json:"to"`
	Subject     string    `gorm:"index;size:500" json:"subject"`
	BodyText    string    `json:"body,omitempty"`
	Labels      string    `json:"labels,omitempty"` // JSON array of label names
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	ReceivedAt  time.Time `gorm:"not null;index" json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Applications []RuleApplication `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"applications,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// LabelNames decodes the stored labels JSON. Returns nil when no labels
// were recorded or the stored value is not valid JSON.
func (m *Message) LabelNames() []string {
	if m.Labels == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(m.Labels), &names); err != nil {
		return nil
	}
	return names
}

// SetLabelNames encodes label names into the stored JSON form.
func (m *Message) SetLabelNames(names []string) {
	if len(names) == 0 {
		m.Labels = ""
		return
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return
	}
	m.Labels = string(encoded)
}

// MessageListItem is a lightweight version for list views
type MessageListItem struct {
	ID          uint      `json:"id"`
	ExternalID  string    `json:"external_id"`
	FromAddress string    `json:"from"`
	Subject     string    `json:"subject"`
	IsRead      bool      `json:"is_read"`
	ReceivedAt  time.Time `json:"received_at"`
}
