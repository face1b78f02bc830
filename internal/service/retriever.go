package service

import (
	"context"
	"log"
	"strings"

	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkSearchRepository defines the vector index interface used for retrieval
type ChunkSearchRepository interface {
	SearchByVector(ctx context.Context, documentID string, embedding []float32, k int) ([]domain.RetrievedChunk, error)
	SearchByText(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error)
}

// RetrieverService returns the chunks of one document most relevant to a query.
type RetrieverService struct {
	embedding EmbeddingClient
	chunks    ChunkSearchRepository
}

// NewRetrieverService creates a new RetrieverService instance
func NewRetrieverService(embedding EmbeddingClient, chunks ChunkSearchRepository) *RetrieverService {
	return &RetrieverService{
		embedding: embedding,
		chunks:    chunks,
	}
}

// Retrieve embeds the query and runs a similarity search restricted to the
// given document. When the vector path yields nothing (embedding provider
// down, or the index returns no rows), it retries once with a text query
// against the same filter. An empty result is a legitimate outcome, not an
// error.
func (s *RetrieverService) Retrieve(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrieverService.Retrieve", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "retrieve",
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}
	if k <= 0 {
		k = 5
	}

	results, err := s.retrieveByVector(ctx, documentID, query, k)
	if err != nil {
		log.Printf("vector retrieval failed for document %s, falling back to text query: %v", documentID, err)
	}
	if len(results) > 0 {
		return results, nil
	}

	results, err = s.chunks.SearchByText(ctx, documentID, query, k)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "text retrieval failed", err)
	}
	if results == nil {
		results = []domain.RetrievedChunk{}
	}
	return results, nil
}

func (s *RetrieverService) retrieveByVector(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error) {
	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingService, "failed to embed query", err)
	}

	results, err := s.chunks.SearchByVector(ctx, documentID, embedding, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "vector retrieval failed", err)
	}
	return results, nil
}
