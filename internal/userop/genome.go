package userop

import (
	"fmt"
	"log/slog"
)

// Genome is one candidate UserOperation parameter set. Fees are in gwei.
type Genome struct {
	CallGasLimit         int64   `json:"callGasLimit"`
	VerificationGasLimit int64   `json:"verificationGasLimit"`
	PreVerificationGas   int64   `json:"preVerificationGas"`
	MaxFeePerGas         float64 `json:"maxFeePerGas"`
	MaxPriorityFeePerGas float64 `json:"maxPriorityFeePerGas"`
}

// numGenes is the number of tunable parameters, in the order of Specs
const numGenes = 5

// TotalGasLimit is the sum of the three gas limits
func (g Genome) TotalGasLimit() int64 {
	return g.CallGasLimit + g.VerificationGasLimit + g.PreVerificationGas
}

func (g Genome) String() string {
	return fmt.Sprintf("call=%d verification=%d preVerification=%d maxFee=%.6f priorityFee=%.6f",
		g.CallGasLimit, g.VerificationGasLimit, g.PreVerificationGas, g.MaxFeePerGas, g.MaxPriorityFeePerGas)
}

// LogValue implements slog.LogValuer
func (g Genome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64(ParamCallGasLimit, g.CallGasLimit),
		slog.Int64(ParamVerificationGasLimit, g.VerificationGasLimit),
		slog.Int64(ParamPreVerificationGas, g.PreVerificationGas),
		slog.Float64(ParamMaxFeePerGas, g.MaxFeePerGas),
		slog.Float64(ParamMaxPriorityFeePerGas, g.MaxPriorityFeePerGas),
	)
}

// mix builds a child taking gene i from b when fromB[i] is set, from a otherwise
func mix(a, b Genome, fromB [numGenes]bool) Genome {
	child := a
	if fromB[0] {
		child.CallGasLimit = b.CallGasLimit
	}
	if fromB[1] {
		child.VerificationGasLimit = b.VerificationGasLimit
	}
	if fromB[2] {
		child.PreVerificationGas = b.PreVerificationGas
	}
	if fromB[3] {
		child.MaxFeePerGas = b.MaxFeePerGas
	}
	if fromB[4] {
		child.MaxPriorityFeePerGas = b.MaxPriorityFeePerGas
	}
	return child
}
