package models

import (
	"time"
)

// Identity is an enrolled person with one reference embedding. Rows are
// created and removed by the external enrollment system; the watcher only
// reads them.
type Identity struct {
	ID        string    `json:"identity_id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Branch    string    `json:"branch" db:"branch"`
	PhotoURL  string    `json:"photo_url" db:"photo_url"`
	Embedding []float32 `json:"-" db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Reference is the subset of an identity consumed by the matcher.
type Reference struct {
	IdentityID string
	Embedding  []float32
}
