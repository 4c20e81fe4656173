package gasoptd

import (
	"encoding/json"
	"strings"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// ParseRunStatus parses a status name case-insensitively; unknown names return ""
func ParseRunStatus(s string) RunStatus {
	switch st := RunStatus(strings.ToUpper(s)); st {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return st
	default:
		return ""
	}
}

// Run is the externally visible state of a run
type Run struct {
	ID              string    `json:"id"`
	Status          RunStatus `json:"status"`
	CreatedAtUnixMs int64     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64     `json:"ended_at_unix_ms,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// RunInput is what a client submits to create a run
type RunInput struct {
	ConfigYAML     string `json:"config_yaml,omitempty"` // empty means defaults
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

// Config parses and validates the run configuration
func (in RunInput) Config() (*config.Config, error) {
	return config.ParseConfigYAMLString(in.ConfigYAML)
}

// RunResult is the outcome of a finished (or cancelled) optimization
type RunResult struct {
	Variant       string                      `json:"variant"`
	Seed          int64                       `json:"seed"`
	Generations   int                         `json:"generations"`
	Converged     bool                        `json:"converged"`
	Reason        string                      `json:"reason"`
	Evaluations   int                         `json:"evaluations"`
	DurationMs    int64                       `json:"duration_ms"`
	BestCost      float64                     `json:"best_cost"`
	Valid         bool                        `json:"valid"`
	Genome        json.RawMessage             `json:"genome"`
	UserOperation *models.UserOperation       `json:"user_operation,omitempty"`
	GasOutput     *models.GasOutput           `json:"gas_output,omitempty"`
	History       []evolution.GenerationStats `json:"history,omitempty"`
}

// RunRecord is everything the daemon knows about a run
type RunRecord struct {
	Run      Run                        `json:"run"`
	Input    RunInput                   `json:"-"`
	Progress *evolution.GenerationStats `json:"progress,omitempty"`
	Result   *RunResult                 `json:"result,omitempty"`
}
