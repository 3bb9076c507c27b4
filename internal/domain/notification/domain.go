package notification

import (
	"context"
	"time"
)

type Type string

const (
	TypePrayerStart   Type = "prayer_start"
	TypePrayerHalf    Type = "prayer_half"
	TypePrayerEnd     Type = "prayer_end"
	TypeEventReminder Type = "event_reminder"
	TypeTaskDue       Type = "task_due"
)

// Key identifies one logical notification. At most one Record may exist per Key.
type Key struct {
	Type  Type   `json:"type"`
	Date  string `json:"reference_date"` // YYYY-MM-DD
	RefID string `json:"reference_id"`
}

func (k Key) String() string { return string(k.Type) + "/" + k.Date + "/" + k.RefID }

type Record struct {
	ID     int64     `json:"id"`
	Key    Key       `json:"key"`
	SentAt time.Time `json:"sent_at"`
}

type Message struct {
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SentEvent is published to the notification events feed after a record is stored.
type SentEvent struct {
	EventID string    `json:"event_id"`
	Key     Key       `json:"key"`
	SentAt  time.Time `json:"sent_at"`
}
