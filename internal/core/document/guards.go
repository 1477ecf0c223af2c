// Package document contains the pure business logic for supervisor review of
// received documents. Documents are created and classified by the AI
// pipeline; only the review transitions below are driven by supervisors.
package document

import "fmt"

// Status is the processing state of a received document.
type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusFiled       Status = "filed"
	StatusNeedsReview Status = "needs_review"
	StatusRejected    Status = "rejected"
)

// Valid reports whether s is a known document status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusFiled, StatusNeedsReview, StatusRejected:
		return true
	}
	return false
}

// reviewTransitions lists what a supervisor may do from each state.
// Processing belongs to the pipeline and accepts no supervisor action.
var reviewTransitions = map[Status][]Status{
	StatusPending:     {StatusFiled, StatusRejected, StatusNeedsReview},
	StatusNeedsReview: {StatusFiled, StatusRejected},
	StatusFiled:       {StatusNeedsReview},
	StatusRejected:    {StatusNeedsReview},
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ReviewContext provides context for review guards.
type ReviewContext struct {
	DocumentID string
	Current    Status
	Target     Status
	FolderID   string // required when filing
	Reason     string // required when rejecting
}

// AssignContext provides context for linking a document to a shift.
type AssignContext struct {
	DocumentID  string
	Current     Status
	ShiftID     string
	ShiftExists bool
}

// CanReview evaluates a supervisor review action.
// Rules:
// - The transition must be in the review table
// - Filing requires a folder
// - Rejecting requires a reason
func CanReview(ctx ReviewContext) GuardResult {
	allowed := false
	for _, next := range reviewTransitions[ctx.Current] {
		if next == ctx.Target {
			allowed = true
			break
		}
	}
	if !allowed {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("document %s cannot move from %s to %s", ctx.DocumentID, ctx.Current, ctx.Target),
		}
	}

	if ctx.Target == StatusFiled && ctx.FolderID == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("filing document %s requires a folder", ctx.DocumentID),
		}
	}

	if ctx.Target == StatusRejected && ctx.Reason == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rejecting document %s requires a reason", ctx.DocumentID),
		}
	}

	return GuardResult{Allowed: true}
}

// CanAssignToShift evaluates linking a document to a shift.
// Rules:
// - The shift must exist in the project
// - The document must not be mid-processing
func CanAssignToShift(ctx AssignContext) GuardResult {
	if !ctx.ShiftExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("shift %s not found", ctx.ShiftID),
		}
	}

	if ctx.Current == StatusProcessing {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("document %s is still being processed", ctx.DocumentID),
		}
	}

	return GuardResult{Allowed: true}
}
