package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/siteops/internal/core/dailylog"
)

// DateLayout is the layout of log_date and scheduled_date columns.
const DateLayout = "2006-01-02"

// DailyLog is one dated, typed activity record. Metadata always has the
// shape selected by LogType; decoding enforces it.
type DailyLog struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	LogDate   string            `json:"log_date"`
	LogType   dailylog.LogType  `json:"log_type"`
	Content   string            `json:"content"`
	Metadata  dailylog.Metadata `json:"metadata"`
	Status    dailylog.Status   `json:"status"`
	CreatedBy string            `json:"created_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int64             `json:"version,omitempty"`
}

func (l DailyLog) EntityID() string        { return l.ID }
func (l DailyLog) EntityProjectID() string { return l.ProjectID }
func (l DailyLog) EntityVersion() int64    { return l.Version }

// UnmarshalJSON decodes the metadata union by log_type.
func (l *DailyLog) UnmarshalJSON(data []byte) error {
	type plain DailyLog
	var aux struct {
		plain
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*l = DailyLog(aux.plain)
	if aux.LogType == "" {
		// Delete payloads may only carry the key columns.
		l.Metadata = nil
		return nil
	}

	meta, err := dailylog.DecodeMetadata(aux.LogType, aux.Metadata)
	if err != nil {
		return fmt.Errorf("daily log %s: %w", aux.ID, err)
	}
	l.Metadata = meta
	return nil
}
