package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/verdantiq/esgpilot/internal/api"
	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/service"
)

type MetricsService interface {
	Extract(ctx context.Context, documentID string) (*service.ExtractionResult, error)
	ListByDocument(ctx context.Context, documentID string) ([]*domain.Metric, error)
	CreateManual(ctx context.Context, documentID, category, goal, actual, ragStatus string) (*domain.Metric, error)
	Update(ctx context.Context, metricID, category, goal, actual, ragStatus string) (*domain.Metric, error)
}

type MetricsHandler struct {
	svc MetricsService
}

func NewMetricsHandler(svc MetricsService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

type MetricResponse struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Category    string `json:"category"`
	Goal        string `json:"goal"`
	Actual      string `json:"actual"`
	RAGStatus   string `json:"rag_status"`
	ExtractedBy string `json:"extracted_by"`
	CreatedAt   string `json:"created_at"`
}

func metricToResponse(m *domain.Metric) *MetricResponse {
	return &MetricResponse{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		Category:    m.Category,
		Goal:        m.Goal,
		Actual:      m.Actual,
		RAGStatus:   m.RAGStatus,
		ExtractedBy: string(m.ExtractedBy),
		CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

type ExtractionResponse struct {
	Outcome string            `json:"outcome"`
	Metrics []*MetricResponse `json:"metrics"`
}

func (h *MetricsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	result, err := h.svc.Extract(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*MetricResponse, len(result.Metrics))
	for i, m := range result.Metrics {
		responses[i] = metricToResponse(m)
	}

	api.Success(w, http.StatusOK, ExtractionResponse{
		Outcome: string(result.Outcome),
		Metrics: responses,
	})
}

func (h *MetricsHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	metrics, err := h.svc.ListByDocument(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*MetricResponse, len(metrics))
	for i, m := range metrics {
		responses[i] = metricToResponse(m)
	}

	api.Success(w, http.StatusOK, responses)
}

type MetricRequest struct {
	Category  string `json:"category"`
	Goal      string `json:"goal"`
	Actual    string `json:"actual"`
	RAGStatus string `json:"rag_status"`
}

func (h *MetricsHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	var req MetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	metric, err := h.svc.CreateManual(r.Context(), documentID, req.Category, req.Goal, req.Actual, req.RAGStatus)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, metricToResponse(metric))
}

func (h *MetricsHandler) Update(w http.ResponseWriter, r *http.Request) {
	metricID := chi.URLParam(r, "metricID")
	if metricID == "" {
		api.Error(w, http.StatusBadRequest, "metricID is required")
		return
	}

	var req MetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	metric, err := h.svc.Update(r.Context(), metricID, req.Category, req.Goal, req.Actual, req.RAGStatus)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, metricToResponse(metric))
}
