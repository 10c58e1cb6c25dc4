package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reminder channels
const (
	ReminderChannelEmail = "email"
	ReminderChannelSMS   = "sms"
	ReminderChannelCall  = "call"
)

// Reminder kinds
const (
	ReminderKindDueSoon     = "due_soon"
	ReminderKindOverdue     = "overdue"
	ReminderKindFinalNotice = "final_notice"
	ReminderKindGeneral     = "general"
)

// FeeReminder logs one attempt to contact a student about a fee
type FeeReminder struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FeeID      uuid.UUID `json:"fee_id" db:"fee_id"`
	Channel    string    `json:"channel" db:"channel"`
	Kind       string    `json:"kind" db:"kind"`
	Message    string    `json:"message" db:"message"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
	Successful bool      `json:"is_successful" db:"is_successful"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
}
