package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/verdantiq/esgpilot/internal/domain"
)

func TestMetricsService_Extract(t *testing.T) {
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", FileName: "report.pdf", FileType: domain.DocumentTypePDF, Processed: true}
	chunks := []domain.RetrievedChunk{
		{DocumentID: "doc-1", ChunkIndex: 0, Content: "carbon targets"},
		{DocumentID: "doc-1", ChunkIndex: 3, Content: "diversity goals"},
	}

	newService := func() (*MetricsService, *MockRetriever, *MockGenerationClient, *MockMetricRepository, *MockDocumentRepository) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockMetrics := new(MockMetricRepository)
		mockDocuments := new(MockDocumentRepository)
		svc := NewMetricsServiceWithUUIDGen(mockRetriever, mockGenerator, mockMetrics, mockDocuments,
			NewMockUUIDGenerator("metric-1", "metric-2", "metric-3"))
		return svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments
	}

	t.Run("extracts metrics from envelope response", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.MatchedBy(func(p ChatPrompt) bool {
			return p.JSONMode && p.System == metricsSystemPrompt
		})).Return(`{"metrics":[{"category":"Environmental","goal":"Cut emissions 50% by 2030","actual":"Down 20%","rag_status":"On Track"}]}`, nil)
		mockMetrics.On("Create", ctx, mock.AnythingOfType("*domain.Metric")).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeExtracted, result.Outcome)
		require.Len(t, result.Metrics, 1)
		assert.Equal(t, "metric-1", result.Metrics[0].ID)
		assert.Equal(t, "Environmental", result.Metrics[0].Category)
		assert.Equal(t, domain.MetricExtractedByLLM, result.Metrics[0].ExtractedBy)
		mockMetrics.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("repairs records with missing fields", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`[{"goal":"Hire 100 apprentices"},"not an object",{"category":"Social"}]`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeExtracted, result.Outcome)
		require.Len(t, result.Metrics, 2)

		first := result.Metrics[0]
		assert.Equal(t, domain.DefaultMetricCategory, first.Category)
		assert.Equal(t, "Hire 100 apprentices", first.Goal)
		assert.Equal(t, domain.DefaultMetricActual, first.Actual)
		assert.Equal(t, domain.DefaultMetricRAGStatus, first.RAGStatus)

		second := result.Metrics[1]
		assert.Equal(t, "Social", second.Category)
		assert.Equal(t, domain.DefaultMetricGoal, second.Goal)
	})

	t.Run("keeps present but empty field values", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`[{"category":"Social","goal":"","actual":"82%","rag_status":""}]`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		require.Len(t, result.Metrics, 1)
		metric := result.Metrics[0]
		assert.Equal(t, "Social", metric.Category)
		assert.Equal(t, "", metric.Goal, "an empty value supplied by the model is not a missing field")
		assert.Equal(t, "82%", metric.Actual)
		assert.Equal(t, "", metric.RAGStatus)
	})

	t.Run("renders non-string field values literally", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`[{"category":"Environmental","goal":42,"actual":null}]`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		require.Len(t, result.Metrics, 1)
		assert.Equal(t, "42", result.Metrics[0].Goal)
		assert.Equal(t, domain.DefaultMetricActual, result.Metrics[0].Actual, "null has no value to keep")
	})

	t.Run("accepts single object response", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`{"category":"Governance","goal":"Annual board review","actual":"Completed","rag_status":"On Track"}`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeExtracted, result.Outcome)
		require.Len(t, result.Metrics, 1)
		assert.Equal(t, "Governance", result.Metrics[0].Category)
	})

	t.Run("recovers with default metrics on unparseable output", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return("I cannot produce JSON today", nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeRecovered, result.Outcome)
		require.Len(t, result.Metrics, 3)
		assert.Equal(t, domain.PillarEnvironmental, result.Metrics[0].Category)
		assert.Equal(t, domain.PillarSocial, result.Metrics[1].Category)
		assert.Equal(t, domain.PillarGovernance, result.Metrics[2].Category)
		mockMetrics.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("recovers when envelope key holds no usable value", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`{"metrics":"none"}`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeRecovered, result.Outcome)
		require.Len(t, result.Metrics, 3)
		mockMetrics.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("recovers with default metrics when generation fails", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return("", errors.New("provider down"))
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeRecovered, result.Outcome)
		assert.Len(t, result.Metrics, 3)
	})

	t.Run("returns empty outcome when document has no chunks", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return([]domain.RetrievedChunk{}, nil)

		result, err := svc.Extract(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, OutcomeEmpty, result.Outcome)
		assert.Empty(t, result.Metrics)
		mockGenerator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		mockMetrics.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("returns not found for unknown document", func(t *testing.T) {
		svc, _, _, _, mockDocuments := newService()
		mockDocuments.On("GetByID", ctx, "missing").Return(nil, domain.ErrDocumentNotFound)

		_, err := svc.Extract(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("surfaces persistence failures", func(t *testing.T) {
		svc, mockRetriever, mockGenerator, mockMetrics, mockDocuments := newService()

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", metricsRetrievalQuery, 8).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return(`[{"category":"Environmental"}]`, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := svc.Extract(ctx, "doc-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestParseMetricRecords(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantOK   bool
		wantLen  int
	}{
		{"metrics envelope", `{"metrics":[{"category":"E"},{"category":"S"}]}`, true, 2},
		{"data envelope", `{"data":[{"category":"E"}]}`, true, 1},
		{"bare array", `[{"category":"E"}]`, true, 1},
		{"single object", `{"category":"E","goal":"g"}`, true, 1},
		{"envelope with single object value", `{"metrics":{"category":"E"}}`, true, 1},
		{"skips non-object elements", `[{"category":"E"},42,"x",null,{"category":"S"}]`, true, 2},
		{"empty array", `[]`, true, 0},
		{"envelope with scalar value", `{"metrics":"none"}`, false, 0},
		{"envelope with numeric value", `{"data":17}`, false, 0},
		{"envelope with null value", `{"metrics":null}`, false, 0},
		{"plain text", `no json here`, false, 0},
		{"json scalar", `"just a string"`, false, 0},
		{"json null", `null`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, ok := parseMetricRecords(tt.response)
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestMetricsService_CreateManual(t *testing.T) {
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", FileName: "report.pdf", FileType: domain.DocumentTypePDF}

	t.Run("creates a manual metric", func(t *testing.T) {
		mockMetrics := new(MockMetricRepository)
		mockDocuments := new(MockDocumentRepository)
		svc := NewMetricsServiceWithUUIDGen(new(MockRetriever), new(MockGenerationClient), mockMetrics, mockDocuments,
			NewMockUUIDGenerator("metric-1"))

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockMetrics.On("Create", ctx, mock.Anything).Return(nil)

		metric, err := svc.CreateManual(ctx, "doc-1", "Environmental", "Cut waste 30%", "Down 10%", "Needs Attention")

		require.NoError(t, err)
		assert.Equal(t, "metric-1", metric.ID)
		assert.Equal(t, domain.MetricExtractedManually, metric.ExtractedBy)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("rejects missing category", func(t *testing.T) {
		mockDocuments := new(MockDocumentRepository)
		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)

		svc := NewMetricsService(new(MockRetriever), new(MockGenerationClient), new(MockMetricRepository), mockDocuments)

		_, err := svc.CreateManual(ctx, "doc-1", "", "goal", "actual", "On Track")
		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	})
}

func TestMetricsService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the displayed fields", func(t *testing.T) {
		existing := &domain.Metric{
			ID:          "metric-1",
			DocumentID:  "doc-1",
			Category:    "Environmental",
			Goal:        "old goal",
			Actual:      "old actual",
			RAGStatus:   "At Risk",
			ExtractedBy: domain.MetricExtractedByLLM,
		}

		mockMetrics := new(MockMetricRepository)
		mockMetrics.On("GetByID", ctx, "metric-1").Return(existing, nil)
		mockMetrics.On("Update", ctx, mock.MatchedBy(func(m *domain.Metric) bool {
			return m.Goal == "new goal" && m.RAGStatus == "On Track"
		})).Return(nil)

		svc := NewMetricsService(new(MockRetriever), new(MockGenerationClient), mockMetrics, new(MockDocumentRepository))

		metric, err := svc.Update(ctx, "metric-1", "Environmental", "new goal", "new actual", "On Track")

		require.NoError(t, err)
		assert.Equal(t, "new goal", metric.Goal)
		assert.Equal(t, domain.MetricExtractedByLLM, metric.ExtractedBy)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("returns not found for unknown metric", func(t *testing.T) {
		mockMetrics := new(MockMetricRepository)
		mockMetrics.On("GetByID", ctx, "missing").Return(nil, domain.ErrMetricNotFound)

		svc := NewMetricsService(new(MockRetriever), new(MockGenerationClient), mockMetrics, new(MockDocumentRepository))

		_, err := svc.Update(ctx, "missing", "c", "g", "a", "On Track")
		assert.ErrorIs(t, err, domain.ErrMetricNotFound)
	})
}

func TestMetricsService_ListByDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("lists stored metrics", func(t *testing.T) {
		stored := []*domain.Metric{{ID: "m-1", DocumentID: "doc-1", Category: "Environmental"}}

		mockMetrics := new(MockMetricRepository)
		mockMetrics.On("ListByDocument", ctx, "doc-1").Return(stored, nil)

		svc := NewMetricsService(new(MockRetriever), new(MockGenerationClient), mockMetrics, new(MockDocumentRepository))

		got, err := svc.ListByDocument(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("rejects empty document ID", func(t *testing.T) {
		svc := NewMetricsService(new(MockRetriever), new(MockGenerationClient), new(MockMetricRepository), new(MockDocumentRepository))

		_, err := svc.ListByDocument(ctx, "")
		assert.ErrorIs(t, err, domain.ErrMissingDocumentID)
	})
}
