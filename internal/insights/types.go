// Package insights turns analytics output into narrative findings for the
// dashboard's insight feed. Detection is rule-based; an optional text
// generator can enrich the feed with model-written analysis.
package insights

import "time"

// Category groups insights by the pattern they describe
type Category string

const (
	CategoryMigration    Category = "Migration"
	CategoryDemographics Category = "Demographics"
	CategoryOperations   Category = "Operations"
	CategorySeasonal     Category = "Seasonal"
	CategoryCapacity     Category = "Capacity"
	CategoryGrowth       Category = "Growth"
)

// Priority orders insights in the feed
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank orders priorities for sorting, most urgent first
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Insight is one narrative finding with its supporting data points
type Insight struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	Priority     Priority  `json:"priority"`
	Summary      string    `json:"summary"`
	DataPoints   []string  `json:"data_points"`
	Implications []string  `json:"implications"`
	Confidence   float64   `json:"confidence"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Stats summarizes the current insight feed
type Stats struct {
	TotalInsights int              `json:"total_insights"`
	ByCategory    map[Category]int `json:"by_category"`
	ByPriority    map[Priority]int `json:"by_priority"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// Analysis is one model-written narrative produced by a TextGenerator
type Analysis struct {
	Analysis     string    `json:"analysis"`
	Model        string    `json:"model"`
	AnalysisType string    `json:"analysis_type"`
	GeneratedAt  time.Time `json:"generated_at"`
	AIPowered    bool      `json:"ai_powered"`
}
