package userop

import (
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// ToUserOperation converts a genome to the persisted UserOperation record
func ToUserOperation(g Genome, bundleSize int64) models.UserOperation {
	return models.UserOperation{
		CallGasLimit:         g.CallGasLimit,
		VerificationGasLimit: g.VerificationGasLimit,
		PreVerificationGas:   g.PreVerificationGas,
		MaxFeePerGas:         g.MaxFeePerGas,
		MaxPriorityFeePerGas: g.MaxPriorityFeePerGas,
		BundleSize:           bundleSize,
		CallData:             models.DefaultCallData,
	}
}

// ToGasOutput converts an evaluation to the persisted gas/latency record
func ToGasOutput(ev evolution.Evaluation) models.GasOutput {
	if !ev.Valid {
		return models.GasOutput{}
	}
	return models.GasOutput{Valid: true, Gas: ev.GasUsed, LatencyMs: ev.LatencyMs}
}

// NewOptimizer creates an evolutionary optimizer over p
func NewOptimizer(p *Problem, params evolution.Params) (*evolution.Optimizer[Genome], error) {
	return evolution.New[Genome](p, params)
}
