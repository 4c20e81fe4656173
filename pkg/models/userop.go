package models

import (
	"encoding/json"
	"math"
	"math/big"
)

// DefaultCallData is the opaque ERC-20 transfer payload attached to every persisted
// UserOperation record. The optimizer never interprets it.
const DefaultCallData = "0xa9059cbb000000000000000000000000dc00314962e3aced0094b01e6a0ecb8946e1218e0000000000000000000000000000000000000000000000000000000000000064"

// UserOperation is the persisted record shape for an optimized parameter set.
// Fee fields are denominated in gwei.
type UserOperation struct {
	CallGasLimit         int64   `json:"callGasLimit"`
	VerificationGasLimit int64   `json:"verificationGasLimit"`
	PreVerificationGas   int64   `json:"preVerificationGas"`
	MaxFeePerGas         float64 `json:"maxFeePerGas"`
	MaxPriorityFeePerGas float64 `json:"maxPriorityFeePerGas"`
	BundleSize           int64   `json:"bundleSize"`
	CallData             string  `json:"callData"`
}

// RPC returns the record with numeric fields hex-encoded and fees converted to wei,
// the shape bundler RPC endpoints expect.
func (u UserOperation) RPC() map[string]string {
	return map[string]string{
		"callGasLimit":         hexInt(big.NewInt(u.CallGasLimit)),
		"verificationGasLimit": hexInt(big.NewInt(u.VerificationGasLimit)),
		"preVerificationGas":   hexInt(big.NewInt(u.PreVerificationGas)),
		"maxFeePerGas":         hexInt(GweiToWei(u.MaxFeePerGas)),
		"maxPriorityFeePerGas": hexInt(GweiToWei(u.MaxPriorityFeePerGas)),
		"callData":             u.CallData,
	}
}

// GweiToWei converts a gwei amount to wei, truncating sub-wei fractions
func GweiToWei(gwei float64) *big.Int {
	if math.IsNaN(gwei) || math.IsInf(gwei, 0) || gwei <= 0 {
		return new(big.Int)
	}
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}

func hexInt(v *big.Int) string {
	return "0x" + v.Text(16)
}

// GasOutput is the persisted gas/latency estimate for a record. Invalid records are
// written as {"gas":"invalid","latency":0}.
type GasOutput struct {
	Valid     bool
	Gas       int64
	LatencyMs float64
}

// MarshalJSON implements json.Marshaler
func (g GasOutput) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return json.Marshal(map[string]any{"gas": "invalid", "latency": 0})
	}
	return json.Marshal(map[string]any{"gas": g.Gas, "latency": g.LatencyMs})
}

// UnmarshalJSON implements json.Unmarshaler
func (g *GasOutput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Gas     json.RawMessage `json:"gas"`
		Latency float64         `json:"latency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var gas int64
	if err := json.Unmarshal(raw.Gas, &gas); err != nil {
		*g = GasOutput{}
		return nil
	}
	*g = GasOutput{Valid: true, Gas: gas, LatencyMs: raw.Latency}
	return nil
}

// SweepRow is one line of a sweep summary: the best configuration of one run
type SweepRow struct {
	BundleSize           int64   `json:"bundle_size"`
	Run                  int     `json:"run"`
	Seed                 int64   `json:"seed"`
	CallGasLimit         int64   `json:"call_gas_limit"`
	VerificationGasLimit int64   `json:"verification_gas_limit"`
	PreVerificationGas   int64   `json:"pre_verification_gas"`
	MaxFeePerGas         float64 `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas float64 `json:"max_priority_fee_per_gas"`
	Fitness              float64 `json:"fitness"`
	Valid                bool    `json:"valid"`
	Generations          int     `json:"generations"`
}
