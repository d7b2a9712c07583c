// File: internal/results/summary.go
// Description: Per-phase outcome accumulation for end-of-run reporting. The
// summary is created when the automation object is built, mutated in place by
// each phase, and finalized exactly once after the state machine halts.

package results

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Outcome tags the result of one phase.
type Outcome string

const (
	OutcomePending Outcome = "Pending"
	OutcomeSuccess Outcome = "Success"
	OutcomeFailed  Outcome = "Failed"
	OutcomeSkipped Outcome = "Skipped"
	OutcomePartial Outcome = "Partial"
)

// RunSummary accumulates per-phase outcomes and timing for one run.
type RunSummary struct {
	RunID string `json:"run_id"`

	Login             Outcome `json:"login"`
	Products          Outcome `json:"products"`
	ProductsPlanned   int     `json:"products_planned"`
	ProductsCompleted int     `json:"products_completed"`
	CartRemoval       Outcome `json:"cart_removal"`
	Logout            Outcome `json:"logout"`

	// LoginNote and CartNote hold the failure classification message for the
	// phase, distinguishing network-origin errors from generic ones.
	LoginNote string `json:"login_note,omitempty"`
	CartNote  string `json:"cart_note,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// New creates a RunSummary with every phase pending.
func New(runID string) *RunSummary {
	return &RunSummary{
		RunID:       runID,
		Login:       OutcomePending,
		Products:    OutcomePending,
		CartRemoval: OutcomePending,
		Logout:      OutcomePending,
		StartedAt:   time.Now(),
	}
}

// Finalize records the total elapsed duration. Call once, after the state
// machine halts, success or failure.
func (s *RunSummary) Finalize() {
	s.Elapsed = time.Since(s.StartedAt)
}

// ProductsLabel renders the product interaction result, e.g. "2 of 3".
func (s *RunSummary) ProductsLabel() string {
	if s.ProductsPlanned == 0 {
		return string(s.Products)
	}
	return fmt.Sprintf("%d of %d", s.ProductsCompleted, s.ProductsPlanned)
}

// Fields renders the summary as structured log fields.
func (s *RunSummary) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.String("login", string(s.Login)),
		zap.String("products", s.ProductsLabel()),
		zap.String("cart_removal", string(s.CartRemoval)),
		zap.String("logout", string(s.Logout)),
		zap.Duration("elapsed", s.Elapsed),
	}
}

// WriteJSON emits the summary as an indented JSON document.
func (s *RunSummary) WriteJSON(w io.Writer) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
