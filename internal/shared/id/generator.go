package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewSyncID generates a time-ordered identifier for one synchronization run.
func NewSyncID() string {
	return "sync-" + newUUID()
}

// NewLogID generates a short log correlation identifier.
func NewLogID() string {
	raw := strings.ReplaceAll(newUUID(), "-", "")
	if len(raw) > 16 {
		raw = raw[len(raw)-16:]
	}
	return raw
}

func newUUID() string {
	value, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return value.String()
}
