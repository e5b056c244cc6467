package storage

import "github.com/google/uuid"

// NewID returns a fresh history row identifier.
func NewID() string {
	return uuid.New().String()
}
