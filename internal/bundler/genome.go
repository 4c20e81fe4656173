package bundler

import (
	"fmt"
	"log/slog"
)

// Genome is one bundler configuration
type Genome struct {
	BatchSize         int  `json:"batchSize"`
	PrioritizeHighGas bool `json:"prioritizeHighGas"`
}

func (g Genome) String() string {
	return fmt.Sprintf("batchSize=%d prioritizeHighGas=%t", g.BatchSize, g.PrioritizeHighGas)
}

// LogValue implements slog.LogValuer
func (g Genome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("batchSize", g.BatchSize),
		slog.Bool("prioritizeHighGas", g.PrioritizeHighGas),
	)
}
