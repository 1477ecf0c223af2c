package dailylog

import "testing"

func TestCanToggleStatus(t *testing.T) {
	tests := []struct {
		name        string
		ctx         ToggleContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can resolve active site issue",
			ctx: ToggleContext{
				LogID:   "log-1",
				LogType: TypeSiteIssue,
				Current: StatusActive,
				Target:  StatusResolved,
			},
			wantAllowed: true,
		},
		{
			name: "can reopen resolved site issue",
			ctx: ToggleContext{
				LogID:   "log-1",
				LogType: TypeSiteIssue,
				Current: StatusResolved,
				Target:  StatusActive,
			},
			wantAllowed: true,
		},
		{
			name: "can continue resolved site issue",
			ctx: ToggleContext{
				LogID:   "log-1",
				LogType: TypeSiteIssue,
				Current: StatusResolved,
				Target:  StatusContinued,
			},
			wantAllowed: true,
		},
		{
			name: "cannot toggle a note",
			ctx: ToggleContext{
				LogID:   "log-2",
				LogType: TypeNote,
				Current: StatusActive,
				Target:  StatusResolved,
			},
			wantAllowed: false,
			wantReason:  "log log-2 is a note entry; only site issues change status",
		},
		{
			name: "cannot toggle to same status",
			ctx: ToggleContext{
				LogID:   "log-1",
				LogType: TypeSiteIssue,
				Current: StatusActive,
				Target:  StatusActive,
			},
			wantAllowed: false,
			wantReason:  "log log-1 is already active",
		},
		{
			name: "cannot toggle to unknown status",
			ctx: ToggleContext{
				LogID:   "log-1",
				LogType: TypeSiteIssue,
				Current: StatusActive,
				Target:  "closed",
			},
			wantAllowed: false,
			wantReason:  `unknown status "closed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanToggleStatus(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestSiteIssueTransitionsAreUnrestricted(t *testing.T) {
	statuses := []Status{StatusActive, StatusResolved, StatusContinued}
	for _, from := range statuses {
		for _, to := range statuses {
			if from == to {
				continue
			}
			if !CanTransition(from, to) {
				t.Errorf("CanTransition(%s, %s) = false, want true", from, to)
			}
		}
	}
}

func TestSiteIssueRoundTrip(t *testing.T) {
	status := InitialStatus(TypeSiteIssue, StatusActive)
	for _, target := range []Status{StatusResolved, StatusActive} {
		if err := CanToggleStatus(ToggleContext{LogID: "log-1", LogType: TypeSiteIssue, Current: status, Target: target}).Error(); err != nil {
			t.Fatalf("toggle %s -> %s: %v", status, target, err)
		}
		status = target
	}
	if status != StatusActive {
		t.Errorf("status = %s, want active", status)
	}
}

func TestInitialStatus(t *testing.T) {
	tests := []struct {
		name      string
		logType   LogType
		requested Status
		want      Status
	}{
		{"site issue keeps requested", TypeSiteIssue, StatusContinued, StatusContinued},
		{"site issue defaults to active", TypeSiteIssue, "", StatusActive},
		{"delivery is always active", TypeDelivery, StatusResolved, StatusActive},
		{"note is always active", TypeNote, "", StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialStatus(tt.logType, tt.requested); got != tt.want {
				t.Errorf("InitialStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanAttachPhoto(t *testing.T) {
	if r := CanAttachPhoto(AttachContext{LogID: "log-1", LogType: TypeObservation}); !r.Allowed {
		t.Errorf("expected observation attach to be allowed, got %q", r.Reason)
	}

	r := CanAttachPhoto(AttachContext{LogID: "log-2", LogType: TypeDelivery})
	if r.Allowed {
		t.Fatal("expected delivery attach to be rejected")
	}
	want := "cannot attach photo to delivery log log-2 (observation entries only)"
	if r.Reason != want {
		t.Errorf("Reason = %q, want %q", r.Reason, want)
	}
}
