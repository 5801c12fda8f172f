// Package dto defines the JSON shapes of the ops API.
package dto

import "github.com/google/uuid"

type DetectionResponse struct {
	ID         uuid.UUID `json:"id"`
	IdentityID string    `json:"identity_id"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	Distance   float64   `json:"distance"`
	OccurredAt string    `json:"occurred_at"`
	FrameURL   string    `json:"frame_url,omitempty"`
	Alerted    bool      `json:"alerted"`
	CreatedAt  string    `json:"created_at"`
}

type DetectionListResponse struct {
	Detections []DetectionResponse `json:"detections"`
	Total      int                 `json:"total"`
}

type IdentityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Branch    string `json:"branch,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ChatRequest struct {
	Query string `json:"query" binding:"required"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

// WSEvent is a WebSocket message for real-time detection delivery.
type WSEvent struct {
	Type string            `json:"type"` // detection
	Data DetectionResponse `json:"data"`
}
