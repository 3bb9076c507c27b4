package task

import "time"

type Task struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	DueAt        time.Time `json:"due_at"`
	ReminderSent bool      `json:"reminder_sent"`
}
