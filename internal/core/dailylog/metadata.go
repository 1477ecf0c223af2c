package dailylog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownLogType   = errors.New("unknown log type")
	ErrMetadataMismatch = errors.New("metadata does not match log type")
)

// Metadata is the type-specific payload of a daily log entry. The set of
// implementations is closed: only the structs in this file satisfy it.
type Metadata interface {
	LogType() LogType
	match(c Cases)
}

// Cases receives a metadata value by its concrete shape. Adding a log type
// adds a method here, so every implementation of Cases stops compiling
// until it handles the new shape.
type Cases interface {
	Visitor(m VisitorMeta)
	Delivery(m DeliveryMeta)
	SiteIssue(m SiteIssueMeta)
	Manpower(m ManpowerMeta)
	ScheduleDelay(m ScheduleDelayMeta)
	Observation(m ObservationMeta)
	Note(m NoteMeta)
	MeetingMinutes(m MeetingMinutesMeta)
}

// Match dispatches m to the matching method of c. A nil m is ignored.
func Match(m Metadata, c Cases) {
	if m == nil {
		return
	}
	m.match(c)
}

// VisitorMeta records a site visitor.
type VisitorMeta struct {
	VisitorName string `json:"visitor_name" validate:"required"`
	Company     string `json:"company,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	TimeIn      string `json:"time_in,omitempty"`
	TimeOut     string `json:"time_out,omitempty"`
	ContactID   string `json:"contact_id,omitempty"`
}

// DeliveryMeta records a material delivery.
type DeliveryMeta struct {
	Supplier        string `json:"supplier" validate:"required"`
	Items           string `json:"items" validate:"required"`
	Quantity        string `json:"quantity,omitempty"`
	ReceivedBy      string `json:"received_by,omitempty"`
	TicketNumber    string `json:"ticket_number,omitempty"`
	SubcontractorID string `json:"subcontractor_id,omitempty"`
}

// SiteIssueMeta records a problem found on site.
type SiteIssueMeta struct {
	Severity   Severity `json:"severity" validate:"required,oneof=low medium high critical"`
	Location   string   `json:"location,omitempty"`
	AssignedTo string   `json:"assigned_to,omitempty"`
	DueDate    string   `json:"due_date,omitempty"`
}

// ManpowerPersonnelEntry names one worker counted in a manpower entry.
// ContactID is a weak reference; Name is kept so the entry survives the
// contact being deleted.
type ManpowerPersonnelEntry struct {
	ContactID string          `json:"contact_id,omitempty"`
	Name      string          `json:"name" validate:"required"`
	Role      string          `json:"role,omitempty"`
	Hours     decimal.Decimal `json:"hours" validate:"gte=0"`
}

// ManpowerMeta records crew size and hours for one company.
type ManpowerMeta struct {
	Company         string                   `json:"company" validate:"required"`
	SubcontractorID string                   `json:"subcontractor_id,omitempty"`
	Count           int                      `json:"count" validate:"gte=0"`
	Hours           decimal.Decimal          `json:"hours" validate:"gte=0"`
	Personnel       []ManpowerPersonnelEntry `json:"personnel,omitempty" validate:"dive"`
}

// ManHours returns Count × Hours.
func (m ManpowerMeta) ManHours() decimal.Decimal {
	return m.Hours.Mul(decimal.NewFromInt(int64(m.Count)))
}

// ScheduleDelayMeta records a slip against the schedule.
type ScheduleDelayMeta struct {
	Reason           string `json:"reason" validate:"required"`
	DaysImpacted     int    `json:"days_impacted" validate:"gte=0"`
	Activity         string `json:"activity,omitempty"`
	ResponsibleParty string `json:"responsible_party,omitempty"`
}

// ObservationMeta records a general observation with optional photos.
// PhotoURLs hold paths returned by the attachment store.
type ObservationMeta struct {
	Category  string   `json:"category,omitempty"`
	Location  string   `json:"location,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty" validate:"dive,required"`
}

// NoteMeta is the payload of a free-form note.
type NoteMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// MeetingAttendee is one attendee of a meeting. ContactID is a weak reference.
type MeetingAttendee struct {
	ContactID string `json:"contact_id,omitempty"`
	Name      string `json:"name" validate:"required"`
	Company   string `json:"company,omitempty"`
}

// MeetingMinutesMeta records a site meeting.
type MeetingMinutesMeta struct {
	Title       string            `json:"title" validate:"required"`
	Attendees   []MeetingAttendee `json:"attendees,omitempty" validate:"dive"`
	Agenda      string            `json:"agenda,omitempty"`
	ActionItems []string          `json:"action_items,omitempty"`
}

func (VisitorMeta) LogType() LogType        { return TypeVisitor }
func (DeliveryMeta) LogType() LogType       { return TypeDelivery }
func (SiteIssueMeta) LogType() LogType      { return TypeSiteIssue }
func (ManpowerMeta) LogType() LogType       { return TypeManpower }
func (ScheduleDelayMeta) LogType() LogType  { return TypeScheduleDelay }
func (ObservationMeta) LogType() LogType    { return TypeObservation }
func (NoteMeta) LogType() LogType           { return TypeNote }
func (MeetingMinutesMeta) LogType() LogType { return TypeMeetingMinutes }

func (m VisitorMeta) match(c Cases)        { c.Visitor(m) }
func (m DeliveryMeta) match(c Cases)       { c.Delivery(m) }
func (m SiteIssueMeta) match(c Cases)      { c.SiteIssue(m) }
func (m ManpowerMeta) match(c Cases)       { c.Manpower(m) }
func (m ScheduleDelayMeta) match(c Cases)  { c.ScheduleDelay(m) }
func (m ObservationMeta) match(c Cases)    { c.Observation(m) }
func (m NoteMeta) match(c Cases)           { c.Note(m) }
func (m MeetingMinutesMeta) match(c Cases) { c.MeetingMinutes(m) }

// EmptyMetadata returns the zero-valued metadata shape for t.
func EmptyMetadata(t LogType) (Metadata, error) {
	switch t {
	case TypeVisitor:
		return VisitorMeta{}, nil
	case TypeDelivery:
		return DeliveryMeta{}, nil
	case TypeSiteIssue:
		return SiteIssueMeta{}, nil
	case TypeManpower:
		return ManpowerMeta{}, nil
	case TypeScheduleDelay:
		return ScheduleDelayMeta{}, nil
	case TypeObservation:
		return ObservationMeta{}, nil
	case TypeNote:
		return NoteMeta{}, nil
	case TypeMeetingMinutes:
		return MeetingMinutesMeta{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLogType, t)
}

// DecodeMetadata decodes raw JSON into the shape selected by t.
// Empty input and JSON null decode to the zero-valued shape.
func DecodeMetadata(t LogType, raw json.RawMessage) (Metadata, error) {
	trimmed := bytes.TrimSpace(raw)
	empty := len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))

	var (
		m   Metadata
		err error
	)
	switch t {
	case TypeVisitor:
		m, err = decodeInto[VisitorMeta](trimmed, empty)
	case TypeDelivery:
		m, err = decodeInto[DeliveryMeta](trimmed, empty)
	case TypeSiteIssue:
		m, err = decodeInto[SiteIssueMeta](trimmed, empty)
	case TypeManpower:
		m, err = decodeInto[ManpowerMeta](trimmed, empty)
	case TypeScheduleDelay:
		m, err = decodeInto[ScheduleDelayMeta](trimmed, empty)
	case TypeObservation:
		m, err = decodeInto[ObservationMeta](trimmed, empty)
	case TypeNote:
		m, err = decodeInto[NoteMeta](trimmed, empty)
	case TypeMeetingMinutes:
		m, err = decodeInto[MeetingMinutesMeta](trimmed, empty)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", t, err)
	}
	return m, nil
}

func decodeInto[T Metadata](raw []byte, empty bool) (Metadata, error) {
	var v T
	if empty {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// MetadataError reports the fields that failed shape validation,
// keyed by JSON field name with the failing rule as value.
type MetadataError struct {
	LogType LogType
	Fields  map[string]string
}

func (e *MetadataError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, e.Fields[name]))
	}
	return fmt.Sprintf("invalid %s metadata: %s", e.LogType, strings.Join(parts, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidateMetadata checks that m has the shape selected by t and satisfies
// that shape's field rules. A nil m is accepted only for notes.
func ValidateMetadata(t LogType, m Metadata) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLogType, t)
	}
	if m == nil {
		if t == TypeNote {
			return nil
		}
		return fmt.Errorf("%w: %s entry has no metadata", ErrMetadataMismatch, t)
	}
	if m.LogType() != t {
		return fmt.Errorf("%w: %s entry carries %s metadata", ErrMetadataMismatch, t, m.LogType())
	}

	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate %s metadata: %w", t, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.TrimPrefix(fe.Namespace(), reflect.TypeOf(m).Name()+".")] = fe.Tag()
	}
	return &MetadataError{LogType: t, Fields: fields}
}
