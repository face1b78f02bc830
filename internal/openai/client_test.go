package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingAPI is a mock implementation of EmbeddingAPI
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockChatAPI is a mock implementation of ChatAPI
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newTestClient(embeddings EmbeddingAPI, chat ChatAPI, batchSize int) *Client {
	return &Client{
		embeddings: embeddings,
		chat:       chat,
		dimensions: DefaultEmbeddingDimensions,
		batchSize:  batchSize,
	}
}

func fakeEmbeddings(n int, seed float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		vec := make([]float32, DefaultEmbeddingDimensions)
		vec[0] = seed + float32(i)
		out[i] = vec
	}
	return out
}

func TestGenerateEmbeddings_BatchesSequentially(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 2)
	ctx := context.Background()

	texts := []string{"a", "b", "c", "d", "e"}
	mockAPI.On("CreateEmbeddings", ctx, []string{"a", "b"}).Return(fakeEmbeddings(2, 0), nil).Once()
	mockAPI.On("CreateEmbeddings", ctx, []string{"c", "d"}).Return(fakeEmbeddings(2, 10), nil).Once()
	mockAPI.On("CreateEmbeddings", ctx, []string{"e"}).Return(fakeEmbeddings(1, 20), nil).Once()

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	require.NoError(t, err)
	require.Len(t, embeddings, 5)
	// Batching must not reorder outputs.
	assert.Equal(t, float32(0), embeddings[0][0])
	assert.Equal(t, float32(1), embeddings[1][0])
	assert.Equal(t, float32(10), embeddings[2][0])
	assert.Equal(t, float32(11), embeddings[3][0])
	assert.Equal(t, float32(20), embeddings[4][0])
	mockAPI.AssertExpectations(t)
}

func TestGenerateEmbeddings_EmptyInput(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, EmbeddingBatchSize)

	embeddings, err := client.GenerateEmbeddings(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, embeddings)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings")
}

func TestGenerateEmbeddings_ProviderError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, EmbeddingBatchSize)
	ctx := context.Background()

	providerErr := errors.New("rate limited")
	mockAPI.On("CreateEmbeddings", ctx, []string{"a"}).Return(nil, providerErr)

	_, err := client.GenerateEmbeddings(ctx, []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
}

func TestGenerateEmbeddings_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, EmbeddingBatchSize)
	ctx := context.Background()

	mockAPI.On("CreateEmbeddings", ctx, []string{"a"}).Return([][]float32{{0.1, 0.2}}, nil)

	_, err := client.GenerateEmbeddings(ctx, []string{"a"})

	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), nil, EmbeddingBatchSize)

	_, err := client.GenerateEmbedding(context.Background(), "")

	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestComplete_Success(t *testing.T) {
	mockChat := new(MockChatAPI)
	client := newTestClient(nil, mockChat, EmbeddingBatchSize)
	ctx := context.Background()

	req := ChatRequest{System: "system prompt", User: "user prompt", Temperature: 0.3, MaxTokens: 500}
	mockChat.On("CreateChatCompletion", ctx, req).Return("generated answer", nil)

	text, err := client.Complete(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "generated answer", text)
	mockChat.AssertExpectations(t)
}

func TestComplete_ProviderError(t *testing.T) {
	mockChat := new(MockChatAPI)
	client := newTestClient(nil, mockChat, EmbeddingBatchSize)
	ctx := context.Background()

	mockChat.On("CreateChatCompletion", ctx, mock.Anything).Return("", errors.New("service unavailable"))

	_, err := client.Complete(ctx, ChatRequest{User: "question"})

	assert.Error(t, err)
}
