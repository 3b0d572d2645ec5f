package models

import (
	"errors"
	"fmt"
	"html"

	"github.com/tidwall/gjson"
)

// IndicatorID is the element id the dashboard page reserves for the health indicator.
const IndicatorID = "status-indicator"

// HealthyValue is the only status value the endpoint reports for a healthy service.
const HealthyValue = "healthy"

// HealthStatus is the outcome of one poll cycle. It is never persisted.
type HealthStatus int

const (
	Unreachable HealthStatus = iota
	Unhealthy
	Healthy
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("HealthStatus(%d)", int(s))
	}
}

// AllStatuses lists every status in a stable order.
func AllStatuses() []HealthStatus {
	return []HealthStatus{Healthy, Unhealthy, Unreachable}
}

// HealthReport is the decoded body of GET /api/health.
// Only Status is interpreted; the remaining fields are informational.
type HealthReport struct {
	Status    string
	Timestamp string
	Checks    map[string]string
}

var (
	errInvalidReport = errors.New("health report is not valid JSON")
	errNullReport    = errors.New("health report is null")
)

// ParseHealthReport decodes a health body. Any well-formed JSON value other
// than null is accepted; a missing or non-string status leaves Status empty.
func ParseHealthReport(data []byte) (HealthReport, error) {
	if !gjson.ValidBytes(data) {
		return HealthReport{}, errInvalidReport
	}
	doc := gjson.ParseBytes(data)
	if doc.Type == gjson.Null {
		return HealthReport{}, errNullReport
	}

	var report HealthReport
	if !doc.IsObject() {
		return report, nil
	}
	if v := doc.Get("status"); v.Type == gjson.String {
		report.Status = v.Str
	}
	if v := doc.Get("timestamp"); v.Type == gjson.String {
		report.Timestamp = v.Str
	}
	if checks := doc.Get("checks"); checks.IsObject() {
		report.Checks = make(map[string]string)
		checks.ForEach(func(name, value gjson.Result) bool {
			report.Checks[name.String()] = value.String()
			return true
		})
	}
	return report, nil
}

// Classify maps a decoded report to Healthy or Unhealthy.
func (r HealthReport) Classify() HealthStatus {
	if r.Status == HealthyValue {
		return Healthy
	}
	return Unhealthy
}

// Presentation is the glyph, color and label drawn for a status.
type Presentation struct {
	Glyph string `json:"glyph"`
	Color string `json:"color"`
	Label string `json:"label"`
}

const indicatorGlyph = "bi bi-circle-fill"

var presentations = map[HealthStatus]Presentation{
	Healthy:     {Glyph: indicatorGlyph, Color: "text-success", Label: "運作中"},
	Unhealthy:   {Glyph: indicatorGlyph, Color: "text-danger", Label: "異常"},
	Unreachable: {Glyph: indicatorGlyph, Color: "text-danger", Label: "離線"},
}

// PresentationFor returns the fixed presentation of a status.
// Unknown values are drawn as Unreachable.
func PresentationFor(s HealthStatus) Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return presentations[Unreachable]
}

// HTML renders the presentation as the indicator's inner markup.
func (p Presentation) HTML() string {
	return fmt.Sprintf(`<i class="%s %s"></i> %s`,
		html.EscapeString(p.Glyph), html.EscapeString(p.Color), html.EscapeString(p.Label))
}
