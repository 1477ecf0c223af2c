package dailylog

import "fmt"

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

// siteIssueTransitions is the site-issue status table. Every state may move
// to every other state; reopening a resolved issue is allowed.
var siteIssueTransitions = map[Status][]Status{
	StatusActive:    {StatusResolved, StatusContinued},
	StatusResolved:  {StatusActive, StatusContinued},
	StatusContinued: {StatusActive, StatusResolved},
}

// CanTransition reports whether a site issue may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range siteIssueTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InitialStatus returns the status a new entry of type t starts in.
// Site issues may be created in any valid status; everything else is active.
func InitialStatus(t LogType, requested Status) Status {
	if t == TypeSiteIssue && requested.Valid() {
		return requested
	}
	return StatusActive
}

// ToggleContext provides context for status toggle guards.
type ToggleContext struct {
	LogID   string
	LogType LogType
	Current Status
	Target  Status
}

// AttachContext provides context for photo attachment guards.
type AttachContext struct {
	LogID   string
	LogType LogType
}

// CanToggleStatus evaluates whether an entry's status can change.
// Rules:
// - Only site issues have a status machine
// - Target must be a known status different from the current one
func CanToggleStatus(ctx ToggleContext) GuardResult {
	if ctx.LogType != TypeSiteIssue {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("log %s is a %s entry; only site issues change status", ctx.LogID, ctx.LogType),
		}
	}

	if !ctx.Target.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown status %q", ctx.Target),
		}
	}

	if ctx.Current == ctx.Target {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("log %s is already %s", ctx.LogID, ctx.Current),
		}
	}

	if !CanTransition(ctx.Current, ctx.Target) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot move log %s from %s to %s", ctx.LogID, ctx.Current, ctx.Target),
		}
	}

	return GuardResult{Allowed: true}
}

// CanAttachPhoto evaluates whether a photo can be attached to an entry.
// Rules:
// - Only observation entries carry photos
func CanAttachPhoto(ctx AttachContext) GuardResult {
	if ctx.LogType != TypeObservation {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot attach photo to %s log %s (observation entries only)", ctx.LogType, ctx.LogID),
		}
	}

	return GuardResult{Allowed: true}
}
