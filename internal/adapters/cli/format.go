// Package cli renders siteops data for the terminal. Adapters are thin: each
// forwards a command to a primary service and prints the result, reading
// lists from the session cache.
package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
)

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed)
	blue    = color.New(color.FgBlue)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgHiMagenta)
	faint   = color.New(color.Faint)
)

func shiftStatus(s shift.Status) string {
	switch s {
	case shift.StatusActive:
		return green.Sprint(s)
	case shift.StatusDraft:
		return yellow.Sprint(s)
	case shift.StatusCancelled:
		return red.Sprint(s)
	}
	return faint.Sprint(s)
}

func logStatus(s dailylog.Status) string {
	switch s {
	case dailylog.StatusActive:
		return yellow.Sprint(s)
	case dailylog.StatusResolved:
		return green.Sprint(s)
	case dailylog.StatusContinued:
		return cyan.Sprint(s)
	}
	return string(s)
}

func severity(s dailylog.Severity) string {
	switch s {
	case dailylog.SeverityCritical, dailylog.SeverityHigh:
		return red.Sprint(s)
	case dailylog.SeverityMedium:
		return yellow.Sprint(s)
	}
	return string(s)
}

func documentStatus(s document.Status) string {
	switch s {
	case document.StatusFiled:
		return green.Sprint(s)
	case document.StatusNeedsReview:
		return yellow.Sprint(s)
	case document.StatusRejected:
		return red.Sprint(s)
	case document.StatusProcessing:
		return blue.Sprint(s)
	}
	return string(s)
}

func notificationStatus(s shift.NotificationStatus) string {
	switch s {
	case shift.NotificationDelivered:
		return green.Sprint(s)
	case shift.NotificationSent:
		return cyan.Sprint(s)
	case shift.NotificationFailed:
		return red.Sprint(s)
	}
	return faint.Sprint(s)
}

// FeedState renders a subscription state.
func FeedState(s secondary.FeedState) string {
	switch s {
	case secondary.FeedSubscribed:
		return green.Sprint("live")
	case secondary.FeedConnecting:
		return yellow.Sprint("connecting")
	case secondary.FeedError:
		return red.Sprint("offline")
	}
	return faint.Sprint(s)
}

func check(ok bool) string {
	if ok {
		return green.Sprint("✓")
	}
	return faint.Sprint("·")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// DescribeEvent renders one applied cache event as a single line.
func DescribeEvent(ev store.Event) string {
	verb := map[models.ChangeType]string{
		models.ChangeInsert: green.Sprint("+"),
		models.ChangeUpdate: cyan.Sprint("~"),
		models.ChangeDelete: red.Sprint("-"),
	}[ev.Type]

	row := ev.New
	if row == nil {
		row = ev.Old
	}

	var label string
	switch r := row.(type) {
	case models.DailyLog:
		label = fmt.Sprintf("%s %s", r.LogType, orDash(r.Content))
	case models.Shift:
		label = fmt.Sprintf("%s (%s)", r.Name, r.Status)
	case models.ShiftWorker:
		label = fmt.Sprintf("%s on %s", orDash(r.Name), r.ShiftID)
	case models.ReceivedDocument:
		label = fmt.Sprintf("%s (%s)", orDash(r.FileName), r.Status)
	case models.Contact:
		label = orDash(r.Name)
	case models.Subcontractor:
		label = orDash(r.Name)
	}

	return fmt.Sprintf("%s %s %s %s", verb, magenta.Sprint(ev.Table), ev.ID(), label)
}
