package domain

import "time"

type NotificationType string

const (
	NotificationTypeReminder   NotificationType = "REMINDER"
	NotificationTypeEscalation NotificationType = "ESCALATION"
	NotificationTypeDigest     NotificationType = "DIGEST"
)

type NotificationState string

const (
	NotificationStatePending NotificationState = "PENDING"
	NotificationStateSent    NotificationState = "SENT"
	NotificationStateFailed  NotificationState = "FAILED"
)

// NotificationRecord is the append-only delivery ledger. Records are created
// by the dispatcher's evaluation pass and mutated only by its send attempts;
// they are never deleted.
type NotificationRecord struct {
	ID        int32  `json:"id"`
	JobID     *int32 `json:"job_id,omitempty"` // nil for fleet-scoped digests
	MessageID string `json:"message_id"`

	Type      NotificationType  `json:"type"`
	State     NotificationState `json:"state"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`

	ScheduledFor time.Time  `json:"scheduled_for"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	Error        string     `json:"error,omitempty"`

	CreatedOn time.Time `json:"created_on"`
}

// DeliveryResult is the outcome of one send attempt during a flush.
type DeliveryResult struct {
	NotificationID int32             `json:"notification_id"`
	State          NotificationState `json:"state"`
	Error          string            `json:"error,omitempty"`
}
