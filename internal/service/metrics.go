package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/telemetry"
)

// metricsRetrievalLimit is how many chunks feed one extraction pass.
const metricsRetrievalLimit = 8

// ExtractionOutcome distinguishes the three ways an extraction can end, so
// callers never conflate "nothing indexed" with "model output was repaired".
type ExtractionOutcome string

const (
	// OutcomeEmpty means no chunks were found for the document at all.
	OutcomeEmpty ExtractionOutcome = "empty"
	// OutcomeExtracted means the model output parsed into usable metrics.
	OutcomeExtracted ExtractionOutcome = "extracted"
	// OutcomeRecovered means generation or parsing failed and the fixed
	// default metrics were substituted.
	OutcomeRecovered ExtractionOutcome = "recovered"
)

// ExtractionResult is the outcome of one metrics extraction pass.
type ExtractionResult struct {
	Outcome ExtractionOutcome
	Metrics []*domain.Metric
}

// MetricRepository defines the repository interface for metric persistence
type MetricRepository interface {
	Create(ctx context.Context, metric *domain.Metric) error
	GetByID(ctx context.Context, id string) (*domain.Metric, error)
	ListByDocument(ctx context.Context, documentID string) ([]*domain.Metric, error)
	Update(ctx context.Context, metric *domain.Metric) error
}

// MetricsService extracts structured ESG metrics from an indexed document by
// prompting the generation model over retrieved chunks, then validating and
// repairing whatever comes back.
type MetricsService struct {
	retriever Retriever
	generator GenerationClient
	metrics   MetricRepository
	documents AnswerDocumentRepository
	uuidGen   UUIDGenerator
}

// NewMetricsService creates a new MetricsService instance
func NewMetricsService(
	retriever Retriever,
	generator GenerationClient,
	metrics MetricRepository,
	documents AnswerDocumentRepository,
) *MetricsService {
	return &MetricsService{
		retriever: retriever,
		generator: generator,
		metrics:   metrics,
		documents: documents,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewMetricsServiceWithUUIDGen creates a MetricsService with a custom UUID generator (for testing)
func NewMetricsServiceWithUUIDGen(
	retriever Retriever,
	generator GenerationClient,
	metrics MetricRepository,
	documents AnswerDocumentRepository,
	uuidGen UUIDGenerator,
) *MetricsService {
	svc := NewMetricsService(retriever, generator, metrics, documents)
	svc.uuidGen = uuidGen
	return svc
}

// Extract pulls ESG-relevant chunks for the document, asks the model for a
// JSON metric list, repairs malformed records, and persists the result.
// Provider failures never abort: they yield the fixed default metrics with
// OutcomeRecovered. A document with no indexed chunks yields OutcomeEmpty.
func (s *MetricsService) Extract(ctx context.Context, documentID string) (*ExtractionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "MetricsService.Extract", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "extract_metrics",
	})
	defer span.End()

	if strings.TrimSpace(documentID) == "" {
		return nil, domain.ErrMissingDocumentID
	}

	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, documentID, metricsRetrievalQuery, metricsRetrievalLimit)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return s.recover(ctx, documentID)
	}
	if len(chunks) == 0 {
		return &ExtractionResult{Outcome: OutcomeEmpty, Metrics: []*domain.Metric{}}, nil
	}

	contexts := make([]string, len(chunks))
	for i, chunk := range chunks {
		contexts[i] = chunk.Content
	}

	response, err := s.generator.Complete(ctx, ChatPrompt{
		System:      metricsSystemPrompt,
		User:        "Extract ESG metrics from the following text:\n\n" + strings.Join(contexts, "\n"),
		Temperature: 0.1,
		MaxTokens:   1000,
		JSONMode:    true,
	})
	if err != nil {
		telemetry.CaptureError(ctx, domain.NewDomainErrorWithCause(domain.ErrCodeGenerationService, "metrics generation failed", err))
		return s.recover(ctx, documentID)
	}

	records, ok := parseMetricRecords(response)
	if !ok || len(records) == 0 {
		telemetry.CaptureError(ctx, domain.NewDomainError(domain.ErrCodeMalformedOutput, "metrics response not usable"))
		return s.recover(ctx, documentID)
	}

	metrics := s.buildMetrics(documentID, records)
	if err := s.saveAll(ctx, metrics); err != nil {
		return nil, err
	}

	return &ExtractionResult{Outcome: OutcomeExtracted, Metrics: metrics}, nil
}

// metricRecord is one repaired model record with all four fields present.
type metricRecord struct {
	Category  string
	Goal      string
	Actual    string
	RAGStatus string
}

// parseMetricRecords tolerantly decodes the model response. Accepted shapes:
// an object with a "metrics" array, an object with a "data" array, a bare
// array, or a single object (wrapped as a one-element array). Records with
// missing fields are repaired with fixed placeholders, never dropped;
// non-object array elements are skipped. Returns false when nothing in the
// response decodes as JSON, or when an envelope key is present but holds
// no usable value.
func parseMetricRecords(response string) ([]metricRecord, bool) {
	raw := []byte(strings.TrimSpace(response))

	var elements []json.RawMessage
	if envelope, keyed := decodeEnvelope(raw); keyed {
		if len(envelope) == 0 {
			return nil, false
		}
		elements = envelope
	} else if arr := decodeArray(raw); arr != nil {
		elements = arr
	} else if isJSONObject(raw) {
		elements = []json.RawMessage{json.RawMessage(raw)}
	} else {
		return nil, false
	}

	records := make([]metricRecord, 0, len(elements))
	for _, element := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(element, &fields); err != nil || fields == nil {
			continue
		}
		records = append(records, metricRecord{
			Category:  stringField(fields, "category", domain.DefaultMetricCategory),
			Goal:      stringField(fields, "goal", domain.DefaultMetricGoal),
			Actual:    stringField(fields, "actual", domain.DefaultMetricActual),
			RAGStatus: stringField(fields, "rag_status", domain.DefaultMetricRAGStatus),
		})
	}
	return records, true
}

// decodeEnvelope handles the {"metrics": [...]} and {"data": [...]} shapes.
// keyed reports whether one of the envelope keys was present; a keyed result
// with no elements means the key held a scalar or null and nothing is usable.
func decodeEnvelope(raw []byte) (elements []json.RawMessage, keyed bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}
	for _, key := range []string{"metrics", "data"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		if arr := decodeArray(inner); arr != nil {
			return arr, true
		}
		if isJSONObject(inner) {
			return []json.RawMessage{inner}, true
		}
		return nil, true
	}
	return nil, false
}

func decodeArray(raw []byte) []json.RawMessage {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

func isJSONObject(raw []byte) bool {
	var obj map[string]json.RawMessage
	// null decodes without error but leaves the map nil.
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}

// stringField defaults only absent keys. A present value is kept as the
// model produced it, empty strings included; non-string scalars keep their
// literal form, and null counts as absent.
func stringField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	if text := strings.TrimSpace(string(raw)); text != "null" {
		return text
	}
	return fallback
}

func (s *MetricsService) buildMetrics(documentID string, records []metricRecord) []*domain.Metric {
	now := time.Now().UTC()
	metrics := make([]*domain.Metric, len(records))
	for i, record := range records {
		metrics[i] = &domain.Metric{
			ID:          s.uuidGen.NewString(),
			DocumentID:  documentID,
			Category:    record.Category,
			Goal:        record.Goal,
			Actual:      record.Actual,
			RAGStatus:   record.RAGStatus,
			ExtractedBy: domain.MetricExtractedByLLM,
			CreatedAt:   now,
		}
	}
	return metrics
}

// recover substitutes the fixed illustrative defaults, one per pillar, so the
// caller never sees an empty table because a provider hiccuped.
func (s *MetricsService) recover(ctx context.Context, documentID string) (*ExtractionResult, error) {
	metrics := s.defaultMetrics(documentID)
	if err := s.saveAll(ctx, metrics); err != nil {
		return nil, err
	}
	return &ExtractionResult{Outcome: OutcomeRecovered, Metrics: metrics}, nil
}

func (s *MetricsService) defaultMetrics(documentID string) []*domain.Metric {
	now := time.Now().UTC()
	defaults := []struct {
		category  string
		goal      string
		actual    string
		ragStatus domain.RAGStatus
	}{
		{
			category:  domain.PillarEnvironmental,
			goal:      "Reduce carbon emissions by 50% by 2030",
			actual:    "Reduced by 25% in 2023",
			ragStatus: domain.RAGStatusOnTrack,
		},
		{
			category:  domain.PillarSocial,
			goal:      "Achieve 50% female representation in leadership by 2025",
			actual:    "Currently at 35%",
			ragStatus: domain.RAGStatusNeedsAttention,
		},
		{
			category:  domain.PillarGovernance,
			goal:      "Implement ESG reporting framework by 2024",
			actual:    "Framework developed, implementation in progress",
			ragStatus: domain.RAGStatusOnTrack,
		},
	}

	metrics := make([]*domain.Metric, len(defaults))
	for i, d := range defaults {
		metrics[i] = &domain.Metric{
			ID:          s.uuidGen.NewString(),
			DocumentID:  documentID,
			Category:    d.category,
			Goal:        d.goal,
			Actual:      d.actual,
			RAGStatus:   string(d.ragStatus),
			ExtractedBy: domain.MetricExtractedByLLM,
			CreatedAt:   now,
		}
	}
	return metrics
}

func (s *MetricsService) saveAll(ctx context.Context, metrics []*domain.Metric) error {
	for _, metric := range metrics {
		if err := s.metrics.Create(ctx, metric); err != nil {
			return err
		}
	}
	return nil
}

// CreateManual records a manually entered metric.
func (s *MetricsService) CreateManual(ctx context.Context, documentID, category, goal, actual, ragStatus string) (*domain.Metric, error) {
	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	metric := &domain.Metric{
		ID:          s.uuidGen.NewString(),
		DocumentID:  documentID,
		Category:    category,
		Goal:        goal,
		Actual:      actual,
		RAGStatus:   ragStatus,
		ExtractedBy: domain.MetricExtractedManually,
		CreatedAt:   time.Now().UTC(),
	}

	if err := domain.ValidateMetric(metric); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid metric", err)
	}

	if err := s.metrics.Create(ctx, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

// Update rewrites the four displayed fields of an existing metric.
func (s *MetricsService) Update(ctx context.Context, metricID, category, goal, actual, ragStatus string) (*domain.Metric, error) {
	metric, err := s.metrics.GetByID(ctx, metricID)
	if err != nil {
		return nil, err
	}

	metric.Category = category
	metric.Goal = goal
	metric.Actual = actual
	metric.RAGStatus = ragStatus

	if err := domain.ValidateMetric(metric); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid metric", err)
	}

	if err := s.metrics.Update(ctx, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

// ListByDocument returns the stored metrics for a document.
func (s *MetricsService) ListByDocument(ctx context.Context, documentID string) ([]*domain.Metric, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domain.ErrMissingDocumentID
	}
	return s.metrics.ListByDocument(ctx, documentID)
}
