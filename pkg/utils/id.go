package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID generates a run ID with a timestamp prefix
func GenerateRunID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("run-%s-%s", timestamp, uuid.NewString()[:8])
}

// GenerateSweepID generates an identifier for one sweep invocation
func GenerateSweepID() string {
	return "sweep-" + uuid.NewString()
}
