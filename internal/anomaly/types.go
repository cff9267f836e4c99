// Package anomaly flags unusual patterns in enrolment and update data using
// z-score analysis and rule-based checks over the repository snapshot.
package anomaly

import "time"

// Type labels the pattern an anomaly was detected by
type Type string

const (
	TypeEnrolmentSurge       Type = "Enrolment Surge"
	TypeEnrolmentDrop        Type = "Enrolment Drop"
	TypeUpdateFatigue        Type = "Update Fatigue"
	TypeDemographicImbalance Type = "Demographic Imbalance"
	TypeGeographicDisparity  Type = "Geographic Disparity"
	TypeSeasonalAnomaly      Type = "Seasonal Anomaly"
)

// Severity grades how urgently an anomaly needs attention
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank orders severities for sorting, most urgent first
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Anomaly is one detected irregularity with its supporting evidence
type Anomaly struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	Severity       Severity               `json:"severity"`
	State          string                 `json:"state"`
	District       string                 `json:"district"`
	Description    string                 `json:"description"`
	DeviationScore float64                `json:"deviation_score"`
	DetectedAt     time.Time              `json:"detected_at"`
	Period         string                 `json:"period,omitempty"`
	Recommendation string                 `json:"recommendation"`
	Evidence       map[string]interface{} `json:"evidence"`
}

// TypeCount is one anomaly type's tally in the summary
type TypeCount struct {
	Type  Type `json:"type"`
	Count int  `json:"count"`
}

// StatusCounts breaks current anomalies down by workflow state. Resolved and
// under-investigation figures come from the case tracker, which is outside
// this service; they are reported as published there.
type StatusCounts struct {
	Resolved           int `json:"resolved"`
	UnderInvestigation int `json:"under_investigation"`
	New                int `json:"new"`
}

// TrendInfo describes the month-over-month movement of anomaly volume
type TrendInfo struct {
	Direction string  `json:"direction"`
	Change    float64 `json:"change"`
}

// Summary aggregates the current detection run
type Summary struct {
	TotalAnomalies int              `json:"total_anomalies"`
	BySeverity     map[Severity]int `json:"by_severity"`
	ByType         []TypeCount      `json:"by_type"`
	Summary        StatusCounts     `json:"summary"`
	Trend          TrendInfo        `json:"trend"`
}
