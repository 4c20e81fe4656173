package userop

import "github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"

// Parameter names, as they appear in persisted records
const (
	ParamCallGasLimit         = "callGasLimit"
	ParamVerificationGasLimit = "verificationGasLimit"
	ParamPreVerificationGas   = "preVerificationGas"
	ParamMaxFeePerGas         = "maxFeePerGas"
	ParamMaxPriorityFeePerGas = "maxPriorityFeePerGas"
)

// Kind is the semantic type of a parameter
type Kind int

const (
	KindInt Kind = iota
	KindReal
)

func (k Kind) String() string {
	if k == KindInt {
		return "int"
	}
	return "real"
}

// ParamSpec is the inclusive range and type of one parameter
type ParamSpec struct {
	Name string  `json:"name"`
	Kind Kind    `json:"kind"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Specs returns the parameter table in genome order
func Specs(b config.Bounds) []ParamSpec {
	return []ParamSpec{
		{Name: ParamCallGasLimit, Kind: KindInt, Min: float64(b.CallGasLimit.Min), Max: float64(b.CallGasLimit.Max)},
		{Name: ParamVerificationGasLimit, Kind: KindInt, Min: float64(b.VerificationGasLimit.Min), Max: float64(b.VerificationGasLimit.Max)},
		{Name: ParamPreVerificationGas, Kind: KindInt, Min: float64(b.PreVerificationGas.Min), Max: float64(b.PreVerificationGas.Max)},
		{Name: ParamMaxFeePerGas, Kind: KindReal, Min: b.MaxFeePerGas.Min, Max: b.MaxFeePerGas.Max},
		{Name: ParamMaxPriorityFeePerGas, Kind: KindReal, Min: b.MaxPriorityFeePerGas.Min, Max: b.MaxPriorityFeePerGas.Max},
	}
}

// InBounds reports whether every gene of g lies within b
func InBounds(g Genome, b config.Bounds) bool {
	return inInt(g.CallGasLimit, b.CallGasLimit) &&
		inInt(g.VerificationGasLimit, b.VerificationGasLimit) &&
		inInt(g.PreVerificationGas, b.PreVerificationGas) &&
		inReal(g.MaxFeePerGas, b.MaxFeePerGas) &&
		inReal(g.MaxPriorityFeePerGas, b.MaxPriorityFeePerGas)
}

func inInt(v int64, r config.IntRange) bool    { return v >= r.Min && v <= r.Max }
func inReal(v float64, r config.RealRange) bool { return v >= r.Min && v <= r.Max }
