// Package dailylog contains the pure business logic for daily log entries:
// the closed set of log types, the metadata union keyed by type and the
// site-issue status machine. No I/O happens here.
package dailylog

import "fmt"

// LogType is the closed tag that selects the metadata shape of an entry.
type LogType string

const (
	TypeVisitor        LogType = "visitor"
	TypeDelivery       LogType = "delivery"
	TypeSiteIssue      LogType = "site_issue"
	TypeManpower       LogType = "manpower"
	TypeScheduleDelay  LogType = "schedule_delay"
	TypeObservation    LogType = "observation"
	TypeNote           LogType = "note"
	TypeMeetingMinutes LogType = "meeting_minutes"
)

// LogTypes lists every log type in display order.
var LogTypes = []LogType{
	TypeVisitor,
	TypeDelivery,
	TypeSiteIssue,
	TypeManpower,
	TypeScheduleDelay,
	TypeObservation,
	TypeNote,
	TypeMeetingMinutes,
}

// Valid reports whether t is one of the known log types.
func (t LogType) Valid() bool {
	for _, known := range LogTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseLogType converts a raw string into a LogType.
func ParseLogType(s string) (LogType, error) {
	t := LogType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLogType, s)
	}
	return t, nil
}

// Status is the lifecycle state of an entry. Only site issues move between
// states; every other type stays active.
type Status string

const (
	StatusActive    Status = "active"
	StatusResolved  Status = "resolved"
	StatusContinued Status = "continued"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusContinued:
		return true
	}
	return false
}

// Severity grades a site issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)
