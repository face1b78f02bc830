package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/verdantiq/esgpilot/internal/api"
	"github.com/verdantiq/esgpilot/internal/domain"
)

type AnswerService interface {
	Answer(ctx context.Context, documentID, question string) (*domain.QAInteraction, error)
	Validate(ctx context.Context, interactionID string, isValid bool) error
	History(ctx context.Context, documentID string) ([]*domain.QAInteraction, error)
}

type QAHandler struct {
	svc AnswerService
}

func NewQAHandler(svc AnswerService) *QAHandler {
	return &QAHandler{svc: svc}
}

type AskRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

type InteractionResponse struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Citations  []domain.Citation `json:"citations"`
	Validated  *bool             `json:"validated"`
	CreatedAt  string            `json:"created_at"`
}

func interactionToResponse(i *domain.QAInteraction) *InteractionResponse {
	return &InteractionResponse{
		ID:         i.ID,
		DocumentID: i.DocumentID,
		Question:   i.Question,
		Answer:     i.Answer,
		Citations:  i.Citations,
		Validated:  i.Validated,
		CreatedAt:  i.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	interaction, err := h.svc.Answer(r.Context(), req.DocumentID, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, interactionToResponse(interaction))
}

type ValidateRequest struct {
	InteractionID string `json:"interaction_id"`
	IsValid       bool   `json:"is_valid"`
}

func (h *QAHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Validate(r.Context(), req.InteractionID, req.IsValid); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "validated"})
}

func (h *QAHandler) History(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	interactions, err := h.svc.History(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*InteractionResponse, len(interactions))
	for i, interaction := range interactions {
		responses[i] = interactionToResponse(interaction)
	}

	api.Success(w, http.StatusOK, responses)
}
