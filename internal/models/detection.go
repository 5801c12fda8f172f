package models

import (
	"time"

	"github.com/google/uuid"
)

// DetectionEvent is one frame-level observation of an enrolled identity.
// Every event is appended to the attendance log; a subset (first successful
// alert per identity per run) is promoted to a durable detection record.
type DetectionEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	IdentityID string    `json:"identity_id" db:"identity_id"`
	Name       string    `json:"name" db:"name"`
	Branch     string    `json:"branch" db:"branch"`
	PhotoURL   string    `json:"photo_url" db:"photo_url"`
	Distance   float64   `json:"distance" db:"distance"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	FrameKey   string    `json:"frame_key" db:"frame_key"` // MinIO key of the annotated frame
	Alerted    bool      `json:"alerted" db:"alerted"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
