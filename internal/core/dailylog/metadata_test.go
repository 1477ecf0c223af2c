package dailylog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecodeMetadata_Manpower(t *testing.T) {
	m, err := DecodeMetadata(TypeManpower, json.RawMessage(`{"company":"Acme","count":4,"hours":8}`))
	if err != nil {
		t.Fatalf("DecodeMetadata failed: %v", err)
	}

	mp, ok := m.(ManpowerMeta)
	if !ok {
		t.Fatalf("expected ManpowerMeta, got %T", m)
	}
	if mp.Company != "Acme" {
		t.Errorf("Company = %q, want Acme", mp.Company)
	}
	if mp.Count != 4 {
		t.Errorf("Count = %d, want 4", mp.Count)
	}
	if !mp.Hours.Equal(decimal.NewFromInt(8)) {
		t.Errorf("Hours = %s, want 8", mp.Hours)
	}
	if !mp.ManHours().Equal(decimal.NewFromInt(32)) {
		t.Errorf("ManHours = %s, want 32", mp.ManHours())
	}
}

func TestDecodeMetadata_EveryTypeHasAShape(t *testing.T) {
	for _, lt := range LogTypes {
		m, err := DecodeMetadata(lt, nil)
		if err != nil {
			t.Errorf("DecodeMetadata(%s, nil) failed: %v", lt, err)
			continue
		}
		if m.LogType() != lt {
			t.Errorf("DecodeMetadata(%s) returned %s metadata", lt, m.LogType())
		}
	}
}

func TestDecodeMetadata_UnknownType(t *testing.T) {
	_, err := DecodeMetadata("weather", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownLogType) {
		t.Errorf("expected ErrUnknownLogType, got %v", err)
	}
}

func TestDecodeMetadata_BadJSON(t *testing.T) {
	_, err := DecodeMetadata(TypeVisitor, json.RawMessage(`{"visitor_name": 12}`))
	if err == nil {
		t.Fatal("expected decode error for wrong field type")
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name       string
		logType    LogType
		meta       Metadata
		wantErr    bool
		wantIs     error
		wantFields []string
	}{
		{
			name:    "valid visitor",
			logType: TypeVisitor,
			meta:    VisitorMeta{VisitorName: "Inspector Lee", Company: "City"},
		},
		{
			name:    "nil metadata allowed for note",
			logType: TypeNote,
			meta:    nil,
		},
		{
			name:    "nil metadata rejected for delivery",
			logType: TypeDelivery,
			meta:    nil,
			wantErr: true,
			wantIs:  ErrMetadataMismatch,
		},
		{
			name:    "shape must match tag",
			logType: TypeSiteIssue,
			meta:    VisitorMeta{VisitorName: "x"},
			wantErr: true,
			wantIs:  ErrMetadataMismatch,
		},
		{
			name:       "site issue needs known severity",
			logType:    TypeSiteIssue,
			meta:       SiteIssueMeta{Severity: "urgent"},
			wantErr:    true,
			wantFields: []string{"severity"},
		},
		{
			name:       "manpower rejects negative values",
			logType:    TypeManpower,
			meta:       ManpowerMeta{Company: "Acme", Count: -1, Hours: decimal.NewFromInt(-2)},
			wantErr:    true,
			wantFields: []string{"count", "hours"},
		},
		{
			name:    "manpower personnel need names",
			logType: TypeManpower,
			meta: ManpowerMeta{
				Company:   "Acme",
				Count:     1,
				Hours:     decimal.NewFromInt(8),
				Personnel: []ManpowerPersonnelEntry{{ContactID: "c-1"}},
			},
			wantErr:    true,
			wantFields: []string{"personnel[0].name"},
		},
		{
			name:    "meeting minutes with attendees",
			logType: TypeMeetingMinutes,
			meta: MeetingMinutesMeta{
				Title:     "Weekly coordination",
				Attendees: []MeetingAttendee{{Name: "Dana"}, {Name: "Sam", ContactID: "c-9"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.logType, tt.meta)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("expected %v, got %v", tt.wantIs, err)
			}
			if len(tt.wantFields) > 0 {
				var merr *MetadataError
				if !errors.As(err, &merr) {
					t.Fatalf("expected *MetadataError, got %T", err)
				}
				for _, f := range tt.wantFields {
					if _, ok := merr.Fields[f]; !ok {
						t.Errorf("expected field %q in %v", f, merr.Fields)
					}
				}
			}
		})
	}
}

type countingCases struct {
	seen map[LogType]int
}

func (c *countingCases) Visitor(VisitorMeta)               { c.seen[TypeVisitor]++ }
func (c *countingCases) Delivery(DeliveryMeta)             { c.seen[TypeDelivery]++ }
func (c *countingCases) SiteIssue(SiteIssueMeta)           { c.seen[TypeSiteIssue]++ }
func (c *countingCases) Manpower(ManpowerMeta)             { c.seen[TypeManpower]++ }
func (c *countingCases) ScheduleDelay(ScheduleDelayMeta)   { c.seen[TypeScheduleDelay]++ }
func (c *countingCases) Observation(ObservationMeta)       { c.seen[TypeObservation]++ }
func (c *countingCases) Note(NoteMeta)                     { c.seen[TypeNote]++ }
func (c *countingCases) MeetingMinutes(MeetingMinutesMeta) { c.seen[TypeMeetingMinutes]++ }

func TestMatchDispatchesEveryShape(t *testing.T) {
	c := &countingCases{seen: map[LogType]int{}}
	for _, lt := range LogTypes {
		m, err := EmptyMetadata(lt)
		if err != nil {
			t.Fatalf("EmptyMetadata(%s): %v", lt, err)
		}
		Match(m, c)
	}
	Match(nil, c)

	for _, lt := range LogTypes {
		if c.seen[lt] != 1 {
			t.Errorf("case %s called %d times, want 1", lt, c.seen[lt])
		}
	}
}
