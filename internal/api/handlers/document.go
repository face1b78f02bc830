package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/verdantiq/esgpilot/internal/api"
	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/service"
)

type IngestService interface {
	Upload(ctx context.Context, fileName string, fileType domain.DocumentType, data []byte) (*domain.Document, error)
}

type DocumentQueryService interface {
	Get(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
}

type DocumentHandler struct {
	ingest    IngestService
	documents DocumentQueryService
}

func NewDocumentHandler(ingest IngestService, documents DocumentQueryService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, documents: documents}
}

type DocumentResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	Processed  bool   `json:"processed"`
	UploadedAt string `json:"uploaded_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		FileName:   d.FileName,
		FileType:   string(d.FileType),
		Processed:  d.Processed,
		UploadedAt: d.UploadedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upload accepts a multipart form with a single "file" field, runs the
// ingestion pipeline, and returns the created document.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	fileType, ok := documentTypeFromName(header.Filename)
	if !ok {
		api.HandleError(w, domain.ErrUnsupportedFormat)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(data) == 0 {
		api.Error(w, http.StatusBadRequest, "file is empty")
		return
	}

	doc, err := h.ingest.Upload(r.Context(), header.Filename, fileType, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "documentID is required")
		return
	}

	doc, err := h.documents.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.documents.ListDocuments(r.Context(), service.ListDocumentsInput{
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(output.Items))
	for i, d := range output.Items {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func documentTypeFromName(name string) (domain.DocumentType, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	fileType := domain.DocumentType(ext)
	if !domain.IsValidDocumentType(fileType) {
		return "", false
	}
	return fileType, true
}
