package common

import (
	"github.com/google/uuid"
)

// NewEnvironmentID generates a unique environment ID
func NewEnvironmentID() string {
	return uuid.New().String()
}
