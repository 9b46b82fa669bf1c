package models

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/jsonutil"
)

// ReportData is the computed funnel payload.
//
// Payloads decoded from JSON keep their original bytes in Raw, and those
// bytes are what gets marshaled back, so submitted reports are stored and
// returned as sent, extra keys included. The typed fields are a best-effort
// view used for analysis: values that do not fit a field leave it zero.
type ReportData struct {
	ConversionRates []float64       `json:"conversion_rates"`
	DropOffPoints   []float64       `json:"drop_off_points"`
	TotalUsers      int64           `json:"total_users"`
	CompletionRate  float64         `json:"completion_rate"`
	StepNames       []string        `json:"step_names"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Raw             json.RawMessage `json:"-"`
}

// ErrReportDataNotObject is returned when a report payload is not a JSON object.
var ErrReportDataNotObject = errors.New("report data must be a JSON object")

type plainReportData ReportData

// MarshalJSON writes Raw when present, otherwise the typed fields.
func (d ReportData) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(plainReportData(d))
}

// UnmarshalJSON keeps the payload in Raw and fills the typed fields leniently:
// numbers may arrive as numeric strings and total_users may be fractional.
func (d *ReportData) UnmarshalJSON(b []byte) error {
	if jsonutil.IsNull(b) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		return ErrReportDataNotObject
	}

	*d = ReportData{Raw: append(json.RawMessage(nil), b...)}
	d.ConversionRates, _ = jsonutil.FlexibleFloat64Slice(fields["conversion_rates"])
	d.DropOffPoints, _ = jsonutil.FlexibleFloat64Slice(fields["drop_off_points"])
	d.CompletionRate, _ = jsonutil.FlexibleFloat64(fields["completion_rate"])
	if total, err := jsonutil.FlexibleFloat64(fields["total_users"]); err == nil && total >= 0 && total < 0x1p63 {
		d.TotalUsers = int64(math.Round(total))
	}
	var steps []string
	if err := json.Unmarshal(fields["step_names"], &steps); err == nil {
		d.StepNames = steps
	}
	if s := jsonutil.FlexibleStringValue(fields["generated_at"]); s != "" {
		d.GeneratedAt, _ = time.Parse(time.RFC3339Nano, s)
	}
	return nil
}

// FunnelReport is an immutable snapshot of a project's funnel.
type FunnelReport struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	OwnerID     uuid.UUID  `json:"user_id"`
	ReportData  ReportData `json:"report_data"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// FunnelData is the raw per-step input submitted by external integrations.
type FunnelData struct {
	StepCompletions []int64 `json:"step_completions"`
	TotalUsers      int64   `json:"total_users"`
	Timestamp       string  `json:"timestamp"`
}
