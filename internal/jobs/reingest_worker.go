package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/verdantiq/esgpilot/internal/domain"
)

const (
	// reingestBatchSize limits how many stuck documents are retried per poll
	reingestBatchSize = 5

	// reingestMinAge keeps the worker from racing an upload that is still
	// being ingested in the request path
	reingestMinAge = 5 * time.Minute
)

// UnprocessedDocumentRepository lists documents whose ingestion never completed
type UnprocessedDocumentRepository interface {
	ListUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Document, error)
}

// RawDocumentStore fetches archived raw report bytes
type RawDocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ReingestService re-runs the ingestion pipeline for a document
type ReingestService interface {
	Reingest(ctx context.Context, documentID string, data []byte) (*domain.Document, error)
}

// ReingestWorker retries ingestion of documents that failed during upload.
// Only documents with an archived raw copy can be retried.
type ReingestWorker struct {
	documents UnprocessedDocumentRepository
	store     RawDocumentStore
	ingest    ReingestService
}

// NewReingestWorker creates a new ReingestWorker instance
func NewReingestWorker(documents UnprocessedDocumentRepository, store RawDocumentStore, ingest ReingestService) *ReingestWorker {
	return &ReingestWorker{
		documents: documents,
		store:     store,
		ingest:    ingest,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ReingestWorker) ProcessJobs(ctx context.Context) error {
	olderThan := time.Now().UTC().Add(-reingestMinAge)

	docs, err := w.documents.ListUnprocessed(ctx, olderThan, reingestBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed documents: %w", err)
	}

	if len(docs) == 0 {
		return nil
	}

	log.Printf("Retrying ingestion for %d unprocessed documents", len(docs))

	for _, doc := range docs {
		if err := w.processDocument(ctx, doc); err != nil {
			log.Printf("Error re-ingesting document %s: %v", doc.ID, err)
		}
	}

	return nil
}

func (w *ReingestWorker) processDocument(ctx context.Context, doc *domain.Document) error {
	if doc.StorageKey == "" {
		return fmt.Errorf("document %s has no archived raw copy", doc.ID)
	}

	data, err := w.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to fetch raw document: %w", err)
	}

	if _, err := w.ingest.Reingest(ctx, doc.ID, data); err != nil {
		return fmt.Errorf("re-ingestion failed: %w", err)
	}

	log.Printf("Document %s re-ingested successfully", doc.ID)
	return nil
}
