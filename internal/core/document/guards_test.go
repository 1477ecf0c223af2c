package document

import "testing"

func TestCanReview(t *testing.T) {
	tests := []struct {
		name        string
		ctx         ReviewContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "file pending document into folder",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusPending, Target: StatusFiled, FolderID: "f-1"},
			wantAllowed: true,
		},
		{
			name:        "file needs-review document",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusNeedsReview, Target: StatusFiled, FolderID: "f-1"},
			wantAllowed: true,
		},
		{
			name:        "reject with reason",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusNeedsReview, Target: StatusRejected, Reason: "duplicate"},
			wantAllowed: true,
		},
		{
			name:        "reopen filed document",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusFiled, Target: StatusNeedsReview},
			wantAllowed: true,
		},
		{
			name:        "filing needs a folder",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusPending, Target: StatusFiled},
			wantAllowed: false,
			wantReason:  "filing document d-1 requires a folder",
		},
		{
			name:        "rejecting needs a reason",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusPending, Target: StatusRejected},
			wantAllowed: false,
			wantReason:  "rejecting document d-1 requires a reason",
		},
		{
			name:        "processing documents belong to the pipeline",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusProcessing, Target: StatusFiled, FolderID: "f-1"},
			wantAllowed: false,
			wantReason:  "document d-1 cannot move from processing to filed",
		},
		{
			name:        "filed cannot jump to rejected",
			ctx:         ReviewContext{DocumentID: "d-1", Current: StatusFiled, Target: StatusRejected, Reason: "x"},
			wantAllowed: false,
			wantReason:  "document d-1 cannot move from filed to rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanReview(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanAssignToShift(t *testing.T) {
	tests := []struct {
		name        string
		ctx         AssignContext
		wantAllowed bool
	}{
		{"assign filed document", AssignContext{DocumentID: "d-1", Current: StatusFiled, ShiftID: "s-1", ShiftExists: true}, true},
		{"unknown shift", AssignContext{DocumentID: "d-1", Current: StatusFiled, ShiftID: "s-9"}, false},
		{"processing document", AssignContext{DocumentID: "d-1", Current: StatusProcessing, ShiftID: "s-1", ShiftExists: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAssignToShift(tt.ctx).Allowed; got != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got, tt.wantAllowed)
			}
		})
	}
}
