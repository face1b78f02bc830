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

func TestAnswerService_Answer(t *testing.T) {
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", FileName: "report.pdf", FileType: domain.DocumentTypePDF, Processed: true}

	t.Run("answers question with citations in retrieval order", func(t *testing.T) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockInteractions := new(MockInteractionRepository)
		mockDocuments := new(MockDocumentRepository)
		mockUUIDGen := NewMockUUIDGenerator("interaction-1")

		service := NewAnswerServiceWithUUIDGen(mockRetriever, mockGenerator, mockInteractions, mockDocuments, mockUUIDGen)

		chunks := []domain.RetrievedChunk{
			{DocumentID: "doc-1", ChunkIndex: 4, Content: "emissions fell 12%"},
			{DocumentID: "doc-1", ChunkIndex: 1, Content: "scope 2 targets"},
		}

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", "What were the emissions?", 5).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.MatchedBy(func(p ChatPrompt) bool {
			return p.System == qaSystemPrompt && p.MaxTokens == 500
		})).Return("Emissions fell by 12%.", nil)
		mockInteractions.On("Create", ctx, mock.AnythingOfType("*domain.QAInteraction")).Return(nil)

		interaction, err := service.Answer(ctx, "doc-1", "What were the emissions?")

		require.NoError(t, err)
		assert.Equal(t, "interaction-1", interaction.ID)
		assert.Equal(t, "Emissions fell by 12%.", interaction.Answer)
		require.Len(t, interaction.Citations, 2)
		assert.Equal(t, 4, interaction.Citations[0].ChunkIndex)
		assert.Equal(t, "emissions fell 12%", interaction.Citations[0].Text)
		assert.Equal(t, 1, interaction.Citations[1].ChunkIndex)
		mockInteractions.AssertExpectations(t)
	})

	t.Run("uses report prompt for report-style questions", func(t *testing.T) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockInteractions := new(MockInteractionRepository)
		mockDocuments := new(MockDocumentRepository)

		service := NewAnswerService(mockRetriever, mockGenerator, mockInteractions, mockDocuments)

		chunks := []domain.RetrievedChunk{{DocumentID: "doc-1", ChunkIndex: 0, Content: "sustainability data"}}

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", mock.Anything, 5).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.MatchedBy(func(p ChatPrompt) bool {
			return p.System == reportSystemPrompt && p.MaxTokens == 2000
		})).Return("# ESG Report", nil)
		mockInteractions.On("Create", ctx, mock.Anything).Return(nil)

		interaction, err := service.Answer(ctx, "doc-1", "Generate an ESG report for this document")

		require.NoError(t, err)
		assert.Equal(t, "# ESG Report", interaction.Answer)
		mockGenerator.AssertExpectations(t)
	})

	t.Run("returns fallback answer when no chunks found", func(t *testing.T) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockInteractions := new(MockInteractionRepository)
		mockDocuments := new(MockDocumentRepository)

		service := NewAnswerService(mockRetriever, mockGenerator, mockInteractions, mockDocuments)

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", mock.Anything, 5).Return([]domain.RetrievedChunk{}, nil)
		mockInteractions.On("Create", ctx, mock.Anything).Return(nil)

		interaction, err := service.Answer(ctx, "doc-1", "What about water usage?")

		require.NoError(t, err)
		assert.Equal(t, noRelevantInfoAnswer, interaction.Answer)
		assert.Empty(t, interaction.Citations)
		mockGenerator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("degrades to apologetic answer when generation fails", func(t *testing.T) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockInteractions := new(MockInteractionRepository)
		mockDocuments := new(MockDocumentRepository)

		service := NewAnswerService(mockRetriever, mockGenerator, mockInteractions, mockDocuments)

		chunks := []domain.RetrievedChunk{{DocumentID: "doc-1", ChunkIndex: 0, Content: "text"}}

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", mock.Anything, 5).Return(chunks, nil)
		mockGenerator.On("Complete", ctx, mock.Anything).Return("", errors.New("rate limited"))
		mockInteractions.On("Create", ctx, mock.Anything).Return(nil)

		interaction, err := service.Answer(ctx, "doc-1", "What were the emissions?")

		require.NoError(t, err)
		assert.Contains(t, interaction.Answer, "Sorry, I couldn't process your question at this time.")
		assert.Contains(t, interaction.Answer, "rate limited")
		assert.Contains(t, interaction.Answer, domain.ErrCodeGenerationService,
			"provider failures are classified as generation service errors")
		assert.Empty(t, interaction.Citations)
	})

	t.Run("degrades to apologetic answer when retrieval fails", func(t *testing.T) {
		mockRetriever := new(MockRetriever)
		mockGenerator := new(MockGenerationClient)
		mockInteractions := new(MockInteractionRepository)
		mockDocuments := new(MockDocumentRepository)

		service := NewAnswerService(mockRetriever, mockGenerator, mockInteractions, mockDocuments)

		mockDocuments.On("GetByID", ctx, "doc-1").Return(doc, nil)
		mockRetriever.On("Retrieve", ctx, "doc-1", mock.Anything, 5).Return(nil, errors.New("index down"))
		mockInteractions.On("Create", ctx, mock.Anything).Return(nil)

		interaction, err := service.Answer(ctx, "doc-1", "What were the emissions?")

		require.NoError(t, err)
		assert.Contains(t, interaction.Answer, "index down")
	})

	t.Run("rejects empty document ID", func(t *testing.T) {
		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), new(MockInteractionRepository), new(MockDocumentRepository))

		_, err := service.Answer(ctx, "  ", "question")
		assert.ErrorIs(t, err, domain.ErrMissingDocumentID)
	})

	t.Run("rejects empty question", func(t *testing.T) {
		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), new(MockInteractionRepository), new(MockDocumentRepository))

		_, err := service.Answer(ctx, "doc-1", "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	})

	t.Run("returns not found for unknown document", func(t *testing.T) {
		mockDocuments := new(MockDocumentRepository)
		mockDocuments.On("GetByID", ctx, "missing").Return(nil, domain.ErrDocumentNotFound)

		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), new(MockInteractionRepository), mockDocuments)

		_, err := service.Answer(ctx, "missing", "question")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestIsReportRequest(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{"report keyword", "Please give me an ESG report on this company", true},
		{"table keyword", "Generate table of all goals and achievements", true},
		{"keyword is case insensitive", "Full ESG REPORT please", true},
		{"plain question", "What are the carbon reduction targets?", false},
		{"two categories is not enough", "How does the supply chain affect land use?", false},
		{"three categories trigger classification", "Discuss supply chain, land use and stakeholder engagement", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isReportRequest(tt.question))
		})
	}
}

func TestAnswerService_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates verdict to repository", func(t *testing.T) {
		mockInteractions := new(MockInteractionRepository)
		mockInteractions.On("SetValidated", ctx, "interaction-1", true).Return(nil)

		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), mockInteractions, new(MockDocumentRepository))

		err := service.Validate(ctx, "interaction-1", true)
		require.NoError(t, err)
		mockInteractions.AssertExpectations(t)
	})

	t.Run("surfaces already validated", func(t *testing.T) {
		mockInteractions := new(MockInteractionRepository)
		mockInteractions.On("SetValidated", ctx, "interaction-1", false).Return(domain.ErrAlreadyValidated)

		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), mockInteractions, new(MockDocumentRepository))

		err := service.Validate(ctx, "interaction-1", false)
		assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
	})

	t.Run("rejects empty interaction ID", func(t *testing.T) {
		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), new(MockInteractionRepository), new(MockDocumentRepository))

		err := service.Validate(ctx, "", true)
		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	})
}

func TestAnswerService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("returns interactions for document", func(t *testing.T) {
		history := []*domain.QAInteraction{
			{ID: "i-1", DocumentID: "doc-1", Question: "q1", Answer: "a1"},
			{ID: "i-2", DocumentID: "doc-1", Question: "q2", Answer: "a2"},
		}

		mockInteractions := new(MockInteractionRepository)
		mockInteractions.On("ListByDocument", ctx, "doc-1").Return(history, nil)

		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), mockInteractions, new(MockDocumentRepository))

		got, err := service.History(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, history, got)
	})

	t.Run("rejects empty document ID", func(t *testing.T) {
		service := NewAnswerService(new(MockRetriever), new(MockGenerationClient), new(MockInteractionRepository), new(MockDocumentRepository))

		_, err := service.History(ctx, "")
		assert.ErrorIs(t, err, domain.ErrMissingDocumentID)
	})
}
