package domain

import (
	"fmt"
	"time"
)

// RAGStatus is the progress label summarizing goal-vs-actual achievement.
type RAGStatus string

const (
	RAGStatusOnTrack        RAGStatus = "On Track"
	RAGStatusNeedsAttention RAGStatus = "Needs Attention"
	RAGStatusAtRisk         RAGStatus = "At Risk"
)

// MetricProvenance records how a metric entered the system
type MetricProvenance string

const (
	MetricExtractedByLLM    MetricProvenance = "LLM"
	MetricExtractedManually MetricProvenance = "Manual"
)

// The three ESG pillars used by the extraction prompt and the default metrics.
const (
	PillarEnvironmental = "Environmental"
	PillarSocial        = "Social"
	PillarGovernance    = "Governance"
)

// Metric represents one extracted or manually entered ESG metric. The four
// displayed fields are never left absent; repair fills missing ones with
// explicit placeholder text.
type Metric struct {
	ID          string
	DocumentID  string
	Category    string
	Goal        string
	Actual      string
	RAGStatus   string
	ExtractedBy MetricProvenance
	CreatedAt   time.Time
}

// Placeholder values used when the model omits a metric field.
const (
	DefaultMetricCategory  = "Other"
	DefaultMetricGoal      = "Not specified"
	DefaultMetricActual    = "Not available"
	DefaultMetricRAGStatus = string(RAGStatusNeedsAttention)
)

// ValidateMetric validates a Metric instance
func ValidateMetric(m *Metric) error {
	if m == nil {
		return fmt.Errorf("metric cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("metric ID is required")
	}

	if m.DocumentID == "" {
		return fmt.Errorf("metric DocumentID is required")
	}

	if m.Category == "" {
		return fmt.Errorf("metric Category is required")
	}

	if !isValidProvenance(m.ExtractedBy) {
		return fmt.Errorf("metric ExtractedBy is invalid: %s", m.ExtractedBy)
	}

	return nil
}

func isValidProvenance(p MetricProvenance) bool {
	switch p {
	case MetricExtractedByLLM, MetricExtractedManually:
		return true
	}
	return false
}
