package shift

import "fmt"

// WorkerType distinguishes directory contacts from one-off workers.
type WorkerType string

const (
	WorkerRegistered WorkerType = "registered"
	WorkerAdHoc      WorkerType = "ad_hoc"
)

// NotificationMethod is how a worker is told about a shift.
type NotificationMethod string

const (
	NotifySMS   NotificationMethod = "sms"
	NotifyEmail NotificationMethod = "email"
	NotifyNone  NotificationMethod = "none"
)

// NotificationStatus is the delivery state reported by the notification
// collaborator.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// Valid reports whether s is a known notification status.
func (s NotificationStatus) Valid() bool {
	switch s {
	case NotificationPending, NotificationSent, NotificationDelivered, NotificationFailed:
		return true
	}
	return false
}

// notificationRank orders statuses; delivered and failed are both final.
var notificationRank = map[NotificationStatus]int{
	NotificationPending:   0,
	NotificationSent:      1,
	NotificationDelivered: 2,
	NotificationFailed:    2,
}

// IsStaleNotification reports whether reported arrives after a status it
// cannot follow: a step back, or a second final status. Callbacks come out
// of order, so stale reports are dropped instead of rejected.
func IsStaleNotification(current, reported NotificationStatus) bool {
	if current == reported || !current.Valid() || !reported.Valid() {
		return false
	}
	return notificationRank[reported] <= notificationRank[current]
}

// AddWorkerContext provides context for adding a worker.
type AddWorkerContext struct {
	ShiftID     string
	ShiftStatus Status
	WorkerType  WorkerType
	ContactID   string
	Name        string
}

// NotificationContext provides context for recording a notification report.
type NotificationContext struct {
	WorkerID string
	Current  NotificationStatus
	Reported NotificationStatus
}

// FormContext provides context for changing the form_submitted flag.
type FormContext struct {
	WorkerID  string
	Current   bool
	Requested bool
}

// CanAddWorker evaluates whether a worker can join a shift.
// Rules:
// - Roster must be mutable (shift not cancelled)
// - Registered workers need a contact, ad-hoc workers need a name
func CanAddWorker(ctx AddWorkerContext) GuardResult {
	if r := CanMutateRoster(RosterContext{ShiftID: ctx.ShiftID, Status: ctx.ShiftStatus}); !r.Allowed {
		return r
	}

	switch ctx.WorkerType {
	case WorkerRegistered:
		if ctx.ContactID == "" {
			return GuardResult{Allowed: false, Reason: "registered workers need a contact id"}
		}
	case WorkerAdHoc:
		if ctx.Name == "" {
			return GuardResult{Allowed: false, Reason: "ad-hoc workers need a name"}
		}
	default:
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown worker type %q", ctx.WorkerType)}
	}

	return GuardResult{Allowed: true}
}

// CanAdvanceNotification evaluates a reported notification status.
// Rules:
// - Reported status must be known
// - Re-reporting the current status is allowed (idempotent)
// - Otherwise the status only moves forward: pending→sent→delivered|failed,
//   skipping steps is allowed (pending→delivered)
func CanAdvanceNotification(ctx NotificationContext) GuardResult {
	if !ctx.Reported.Valid() {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown notification status %q", ctx.Reported)}
	}

	if ctx.Current == ctx.Reported {
		return GuardResult{Allowed: true}
	}

	if ctx.Current.Valid() && notificationRank[ctx.Reported] > notificationRank[ctx.Current] {
		return GuardResult{Allowed: true}
	}

	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("worker %s notification cannot go from %s to %s", ctx.WorkerID, ctx.Current, ctx.Reported),
	}
}

// CanSetFormSubmitted evaluates a change to the form_submitted flag.
// Rules:
// - Once submitted, the flag never goes back to false
func CanSetFormSubmitted(ctx FormContext) GuardResult {
	if ctx.Current && !ctx.Requested {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("worker %s already submitted their form", ctx.WorkerID),
		}
	}

	return GuardResult{Allowed: true}
}
