package rules

import (
	"github.com/sortdesk/mailsift-backend/internal/models"
)

// ResolveField extracts the string value a condition tests from the message.
// The second return is false for fields outside the vocabulary, which makes
// the owning condition evaluate to false. Absent body and labels resolve to
// the empty string, not to not-found.
func ResolveField(msg *models.Message, field Field) (string, bool) {
	switch field {
	case FieldFrom:
		return msg.FromAddress, true
	case FieldTo:
		return msg.ToAddress, true
	case FieldSubject:
		return msg.Subject, true
	case FieldBody:
		return msg.BodyText, true
	case FieldLabels:
		return msg.Labels, true
	case FieldReceivedDate, FieldReceivedAt:
		// Timestamp fields route to date predicates; the string form is
		// only used for logging.
		return msg.ReceivedAt.String(), true
	default:
		return "", false
	}
}
