package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/telemetry"
)

// qaRetrievalLimit is how many chunks back a single answer.
const qaRetrievalLimit = 5

// ChatPrompt is one structured system+user prompt for the generation model.
type ChatPrompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// GenerationClient defines the interface for LLM text generation
type GenerationClient interface {
	Complete(ctx context.Context, prompt ChatPrompt) (string, error)
}

// Retriever defines the interface for chunk retrieval
type Retriever interface {
	Retrieve(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error)
}

// InteractionRepository defines the repository interface for QA interaction persistence
type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.QAInteraction) error
	SetValidated(ctx context.Context, id string, isValid bool) error
	ListByDocument(ctx context.Context, documentID string) ([]*domain.QAInteraction, error)
}

// AnswerDocumentRepository defines the document lookup needed by the QA flow
type AnswerDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// AnswerService composes answers to questions about a document: it classifies
// the question, retrieves relevant chunks, prompts the generation model, and
// records the interaction with its citations.
type AnswerService struct {
	retriever    Retriever
	generator    GenerationClient
	interactions InteractionRepository
	documents    AnswerDocumentRepository
	uuidGen      UUIDGenerator
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(
	retriever Retriever,
	generator GenerationClient,
	interactions InteractionRepository,
	documents AnswerDocumentRepository,
) *AnswerService {
	return &AnswerService{
		retriever:    retriever,
		generator:    generator,
		interactions: interactions,
		documents:    documents,
		uuidGen:      &DefaultUUIDGenerator{},
	}
}

// NewAnswerServiceWithUUIDGen creates an AnswerService with a custom UUID generator (for testing)
func NewAnswerServiceWithUUIDGen(
	retriever Retriever,
	generator GenerationClient,
	interactions InteractionRepository,
	documents AnswerDocumentRepository,
	uuidGen UUIDGenerator,
) *AnswerService {
	svc := NewAnswerService(retriever, generator, interactions, documents)
	svc.uuidGen = uuidGen
	return svc
}

// Answer answers a question about a document and persists the interaction.
// Collaborator failures during retrieval or generation degrade into an
// apologetic answer with no citations rather than an error; only invalid
// input and persistence failures surface as errors.
func (s *AnswerService) Answer(ctx context.Context, documentID, question string) (*domain.QAInteraction, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "answer",
	})
	defer span.End()

	if strings.TrimSpace(documentID) == "" {
		return nil, domain.ErrMissingDocumentID
	}
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	answer, citations := s.compose(ctx, documentID, question)

	interaction := domain.NewQAInteraction(
		s.uuidGen.NewString(),
		documentID,
		question,
		answer,
		citations,
		time.Now().UTC(),
	)

	if err := s.interactions.Create(ctx, interaction); err != nil {
		span.SetError(err)
		return nil, err
	}

	return interaction, nil
}

func (s *AnswerService) compose(ctx context.Context, documentID, question string) (string, []domain.Citation) {
	chunks, err := s.retriever.Retrieve(ctx, documentID, question, qaRetrievalLimit)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Sprintf("Sorry, I couldn't process your question at this time. Error: %v", err), []domain.Citation{}
	}

	if len(chunks) == 0 {
		return noRelevantInfoAnswer, []domain.Citation{}
	}

	contexts := make([]string, len(chunks))
	for i, chunk := range chunks {
		contexts[i] = chunk.Content
	}
	documentContext := strings.Join(contexts, "\n")

	var prompt ChatPrompt
	if isReportRequest(question) {
		prompt = ChatPrompt{
			System:      reportSystemPrompt,
			User:        fmt.Sprintf("Document content:\n%s\n\nGenerate a comprehensive ESG report using the information from this document, following the format in the instructions.", documentContext),
			Temperature: 0.2,
			MaxTokens:   2000,
		}
	} else {
		prompt = ChatPrompt{
			System:      qaSystemPrompt,
			User:        fmt.Sprintf("Document excerpts:\n%s\n\nQuestion: %s", documentContext, question),
			Temperature: 0.3,
			MaxTokens:   500,
		}
	}

	answer, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		genErr := domain.NewDomainErrorWithCause(domain.ErrCodeGenerationService, "answer generation failed", err)
		telemetry.CaptureError(ctx, genErr)
		return fmt.Sprintf("Sorry, I couldn't process your question at this time. Error: %v", genErr), []domain.Citation{}
	}

	// Citations mirror the retrieval ranking, one entry per chunk.
	citations := make([]domain.Citation, len(chunks))
	for i, chunk := range chunks {
		citations[i] = domain.Citation{
			Text:       chunk.Content,
			ChunkIndex: chunk.ChunkIndex,
		}
	}

	return strings.TrimSpace(answer), citations
}

// isReportRequest classifies a question as a structured-report request when
// it contains a report keyword, or mentions at least three of the thirteen
// ESG categories. Case-insensitive substring matching throughout.
func isReportRequest(question string) bool {
	q := strings.ToLower(question)

	for _, keyword := range reportKeywords {
		if strings.Contains(q, keyword) {
			return true
		}
	}

	mentioned := 0
	for _, category := range esgCategories {
		if strings.Contains(q, category) {
			mentioned++
		}
	}
	return mentioned >= 3
}

// Validate records a reviewer's verdict on an interaction. The flag is set
// exactly once; a second attempt fails with ErrAlreadyValidated.
func (s *AnswerService) Validate(ctx context.Context, interactionID string, isValid bool) error {
	if strings.TrimSpace(interactionID) == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "interaction ID is required")
	}
	return s.interactions.SetValidated(ctx, interactionID, isValid)
}

// History returns all interactions for a document, oldest first.
func (s *AnswerService) History(ctx context.Context, documentID string) ([]*domain.QAInteraction, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domain.ErrMissingDocumentID
	}
	return s.interactions.ListByDocument(ctx, documentID)
}
