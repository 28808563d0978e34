package domain

// LineOutcome classifies the result of reconciling one basket line.
type LineOutcome string

const (
	// OutcomeApplied means stock was decremented and the line was fulfilled.
	OutcomeApplied LineOutcome = "APPLIED"
	// OutcomeInsufficientStock means the requested quantity exceeded live stock.
	OutcomeInsufficientStock LineOutcome = "INSUFFICIENT_STOCK"
	// OutcomeNotFound means the toy no longer exists in the catalog.
	OutcomeNotFound LineOutcome = "NOT_FOUND"
	// OutcomeFailed means an upstream call errored, timed out or was cancelled.
	OutcomeFailed LineOutcome = "FAILED"
)

// LineResult is the outcome of one line's reconciliation. RemainingStock is
// only meaningful when the outcome is Applied or InsufficientStock.
type LineResult struct {
	ToyID          int         `json:"toyId"`
	Name           string      `json:"name"`
	Requested      int         `json:"requested"`
	Outcome        LineOutcome `json:"outcome"`
	RemainingStock int         `json:"remainingStock,omitempty"`
	Reason         string      `json:"reason,omitempty"`
}

// CheckoutReport is the structured result of one checkout run: every line's
// outcome plus the basket as it stands after all removals completed.
// BasketError is set when that final view could not be loaded, so a nil
// Basket is distinguishable from an empty one.
type CheckoutReport struct {
	ID          string       `json:"id"`
	UserID      int          `json:"userId"`
	Lines       []LineResult `json:"lines"`
	Basket      *Basket      `json:"basket,omitempty"`
	BasketError string       `json:"basketError,omitempty"`
}

// AppliedLines returns only the fulfilled lines.
func (r *CheckoutReport) AppliedLines() []LineResult {
	out := make([]LineResult, 0, len(r.Lines))
	for _, line := range r.Lines {
		if line.Outcome == OutcomeApplied {
			out = append(out, line)
		}
	}
	return out
}

// FullyApplied reports whether every line was fulfilled.
func (r *CheckoutReport) FullyApplied() bool {
	return len(r.AppliedLines()) == len(r.Lines)
}
