package sweep

import (
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// RunOutcome is the best-of-run result of one sweep run
type RunOutcome struct {
	SweepID     string                             `json:"sweepId"`
	BundleSize  int64                              `json:"bundleSize"`
	Run         int                                `json:"run"`
	Seed        int64                              `json:"seed"`
	Best        evolution.Candidate[userop.Genome] `json:"best"`
	Generations int                                `json:"generations"`
	Converged   bool                               `json:"converged"`
	Reason      string                             `json:"reason"`
	Evaluations int                                `json:"evaluations"`
	Duration    time.Duration                      `json:"duration"`
}

// UserOperation returns the persisted record of the best genome
func (o RunOutcome) UserOperation() models.UserOperation {
	return userop.ToUserOperation(o.Best.Genome, o.BundleSize)
}

// GasOutput returns the persisted gas/latency record of the best genome
func (o RunOutcome) GasOutput() models.GasOutput {
	return userop.ToGasOutput(o.Best.Evaluation)
}

// Row returns the summary row of the run
func (o RunOutcome) Row() models.SweepRow {
	g := o.Best.Genome
	return models.SweepRow{
		BundleSize:           o.BundleSize,
		Run:                  o.Run,
		Seed:                 o.Seed,
		CallGasLimit:         g.CallGasLimit,
		VerificationGasLimit: g.VerificationGasLimit,
		PreVerificationGas:   g.PreVerificationGas,
		MaxFeePerGas:         g.MaxFeePerGas,
		MaxPriorityFeePerGas: g.MaxPriorityFeePerGas,
		Fitness:              o.Best.Cost,
		Valid:                o.Best.Valid,
		Generations:          o.Generations,
	}
}
