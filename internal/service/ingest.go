package service

import (
	"context"
	"log"
	"time"

	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/telemetry"
)

// TextExtractor pulls plain text out of an uploaded file.
type TextExtractor interface {
	Text(data []byte, fileType domain.DocumentType) (string, error)
}

// IngestDocumentRepository defines the document operations ingestion needs
type IngestDocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	MarkProcessed(ctx context.Context, id string) error
}

// ChunkWriteRepository defines the chunk persistence interface
type ChunkWriteRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error
}

// RawArchive stores the original uploaded bytes for later re-ingestion.
type RawArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// IngestService runs the upload-to-index pipeline: extract text, chunk it,
// embed the chunks, and replace the document's indexed chunks. Archival of
// the raw bytes is best effort; indexing is not.
type IngestService struct {
	documents IngestDocumentRepository
	chunks    ChunkWriteRepository
	extractor TextExtractor
	embedder  EmbeddingClient
	archive   RawArchive
	uuidGen   UUIDGenerator
}

// NewIngestService creates a new IngestService instance. archive may be nil
// when no object storage is configured.
func NewIngestService(
	documents IngestDocumentRepository,
	chunks ChunkWriteRepository,
	extractor TextExtractor,
	embedder EmbeddingClient,
	archive RawArchive,
) *IngestService {
	return &IngestService{
		documents: documents,
		chunks:    chunks,
		extractor: extractor,
		embedder:  embedder,
		archive:   archive,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewIngestServiceWithUUIDGen creates an IngestService with a custom UUID generator (for testing)
func NewIngestServiceWithUUIDGen(
	documents IngestDocumentRepository,
	chunks ChunkWriteRepository,
	extractor TextExtractor,
	embedder EmbeddingClient,
	archive RawArchive,
	uuidGen UUIDGenerator,
) *IngestService {
	svc := NewIngestService(documents, chunks, extractor, embedder, archive)
	svc.uuidGen = uuidGen
	return svc
}

// Upload registers a new document and runs the ingestion pipeline over the
// uploaded bytes. On pipeline failure the document row remains with
// processed=false so the re-ingest worker can retry it later.
func (s *IngestService) Upload(ctx context.Context, fileName string, fileType domain.DocumentType, data []byte) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Upload", telemetry.SpanAttributes{
		Operation: "upload_document",
	})
	defer span.End()

	doc := domain.NewDocument(s.uuidGen.NewString(), fileName, fileType, time.Now().UTC())
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	if s.archive != nil {
		doc.StorageKey = "raw/" + doc.ID
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.Ingest(ctx, doc, data); err != nil {
		span.SetError(err)
		return doc, err
	}

	doc.Processed = true
	return doc, nil
}

// Reingest re-runs the pipeline for an existing document, replacing any
// chunks from a previous run.
func (s *IngestService) Reingest(ctx context.Context, documentID string, data []byte) (*domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.Ingest(ctx, doc, data); err != nil {
		return nil, err
	}

	doc.Processed = true
	return doc, nil
}

// Ingest runs extraction, chunking, embedding, and index replacement for one
// document. Any step failing aborts without marking the document processed.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document, data []byte) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		DocumentID: doc.ID,
		Operation:  "ingest_document",
	})
	defer span.End()

	text, err := s.extractor.Text(data, doc.FileType)
	if err != nil {
		return err
	}

	pieces := ChunkText(text, DefaultMaxChunkChars)
	if len(pieces) > 0 {
		embeddings, err := s.embedder.GenerateEmbeddings(ctx, pieces)
		if err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingService, "failed to embed document chunks", err)
		}

		chunks := make([]*domain.Chunk, len(pieces))
		for i, content := range pieces {
			chunks[i] = &domain.Chunk{
				DocumentID: doc.ID,
				ChunkIndex: i,
				Content:    content,
				Embedding:  embeddings[i],
			}
		}

		if err := s.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to store document chunks", err)
		}
	} else {
		if err := s.chunks.ReplaceChunks(ctx, doc.ID, nil); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to clear document chunks", err)
		}
	}

	if s.archive != nil && doc.StorageKey != "" {
		if err := s.archive.Put(ctx, doc.StorageKey, data, contentTypeFor(doc.FileType)); err != nil {
			// Archival is best effort; the index is already current.
			log.Printf("WARN: failed to archive document %s: %v", doc.ID, err)
			telemetry.CaptureError(ctx, err)
		}
	}

	if err := s.documents.MarkProcessed(ctx, doc.ID); err != nil {
		return err
	}

	return nil
}

func contentTypeFor(fileType domain.DocumentType) string {
	switch fileType {
	case domain.DocumentTypePDF:
		return "application/pdf"
	case domain.DocumentTypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
