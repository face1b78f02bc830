//go:build e2e

// Package e2e exercises the HTTP API end to end against real PostgreSQL
// (pgvector) and RustFS containers. The generation and embedding providers
// are replaced with deterministic in-process fakes so the suite runs without
// network access to OpenAI.
//
// Run with: go test -tags=e2e ./test/e2e/...
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/verdantiq/esgpilot/internal/api/handlers"
	"github.com/verdantiq/esgpilot/internal/extract"
	"github.com/verdantiq/esgpilot/internal/repository"
	"github.com/verdantiq/esgpilot/internal/server"
	"github.com/verdantiq/esgpilot/internal/service"
	"github.com/verdantiq/esgpilot/internal/storage"
	"github.com/verdantiq/esgpilot/internal/testutil"
)

const embeddingDimensions = 1536

// E2ETestEnv holds everything a test scenario needs: running containers, a
// live HTTP server wired exactly like the serve command, and a valid API key.
type E2ETestEnv struct {
	T         *testing.T
	Ctx       context.Context
	Postgres  *testutil.PostgresContainer
	RustFS    *testutil.RustFSContainer
	Pool      *pgxpool.Pool
	S3        *storage.S3Client
	Server    *httptest.Server
	APIToken  string
	Generator *scriptedGenerationClient
	client    *http.Client
}

// SetupE2EEnv starts the containers, runs migrations, wires the full service
// stack behind an httptest server, and creates one API key for the suite.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	t.Helper()
	ctx := context.Background()

	pg := testutil.NewPostgresContainer(ctx, t)
	rustfs := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pg, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        rustfs.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "esgpilot-e2e",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, s3Client.EnsureBucket(ctx))

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	metricRepo := repository.NewMetricRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	generator := newScriptedGenerationClient()
	embedder := &localEmbeddingClient{}

	retriever := service.NewRetrieverService(embedder, chunkRepo)
	ingestSvc := service.NewIngestService(documentRepo, chunkRepo, extract.NewExtractor(), embedder, s3Client)
	answerSvc := service.NewAnswerService(retriever, generator, interactionRepo, documentRepo)
	metricsSvc := service.NewMetricsService(retriever, generator, metricRepo, documentRepo)
	documentSvc := service.NewDocumentService(documentRepo)
	authSvc := service.NewAuthService(apiKeyRepo, &service.DefaultUUIDGenerator{})

	token, err := authSvc.CreateAPIKey(ctx, "e2e-suite")
	require.NoError(t, err)

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:   authSvc,
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc, documentSvc),
		QAHandler:       handlers.NewQAHandler(answerSvc),
		MetricsHandler:  handlers.NewMetricsHandler(metricsSvc),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:         t,
		Ctx:       ctx,
		Postgres:  pg,
		RustFS:    rustfs,
		Pool:      pool,
		S3:        s3Client,
		Server:    srv,
		APIToken:  token,
		Generator: generator,
		client:    srv.Client(),
	}
}

// Cleanup tears down the server and both containers.
func (env *E2ETestEnv) Cleanup() {
	env.Server.Close()
	env.Pool.Close()
	if err := env.RustFS.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate rustfs container: %v", err)
	}
	if err := env.Postgres.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate postgres container: %v", err)
	}
}

// apiEnvelope mirrors the server's response wrapper.
type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// request performs one HTTP call and decodes the response envelope. An empty
// token sends the request unauthenticated.
func (env *E2ETestEnv) request(method, path, token, contentType string, body io.Reader) (int, apiEnvelope) {
	env.T.Helper()

	req, err := http.NewRequest(method, env.Server.URL+path, body)
	require.NoError(env.T, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := env.client.Do(req)
	require.NoError(env.T, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(env.T, err)

	var envelope apiEnvelope
	if len(raw) > 0 {
		require.NoError(env.T, json.Unmarshal(raw, &envelope), "unexpected response body: %s", raw)
	}
	return resp.StatusCode, envelope
}

// Get performs an authenticated GET and decodes data into out when non-nil.
func (env *E2ETestEnv) Get(path string, out any) (int, string) {
	status, envelope := env.request(http.MethodGet, path, env.APIToken, "", nil)
	env.decode(envelope, out)
	return status, envelope.Error
}

// Post performs an authenticated POST with a JSON body.
func (env *E2ETestEnv) Post(path string, in, out any) (int, string) {
	status, envelope := env.request(http.MethodPost, path, env.APIToken, "application/json", env.encode(in))
	env.decode(envelope, out)
	return status, envelope.Error
}

// Put performs an authenticated PUT with a JSON body.
func (env *E2ETestEnv) Put(path string, in, out any) (int, string) {
	status, envelope := env.request(http.MethodPut, path, env.APIToken, "application/json", env.encode(in))
	env.decode(envelope, out)
	return status, envelope.Error
}

// Upload sends a multipart document upload with the given file name and bytes.
func (env *E2ETestEnv) Upload(fileName string, content []byte, out any) (int, string) {
	env.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(env.T, err)
	_, err = part.Write(content)
	require.NoError(env.T, err)
	require.NoError(env.T, writer.Close())

	status, envelope := env.request(http.MethodPost, "/documents/upload", env.APIToken, writer.FormDataContentType(), &buf)
	env.decode(envelope, out)
	return status, envelope.Error
}

func (env *E2ETestEnv) encode(in any) io.Reader {
	env.T.Helper()
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	require.NoError(env.T, err)
	return bytes.NewReader(raw)
}

func (env *E2ETestEnv) decode(envelope apiEnvelope, out any) {
	env.T.Helper()
	if out == nil || len(envelope.Data) == 0 {
		return
	}
	require.NoError(env.T, json.Unmarshal(envelope.Data, out))
}

// scriptedGenerationClient stands in for the chat model. JSON-mode prompts
// (metrics extraction) get the scripted metrics payload; everything else gets
// the scripted answer. A scripted error fails both.
type scriptedGenerationClient struct {
	mu          sync.Mutex
	answer      string
	metricsJSON string
	err         error
}

func newScriptedGenerationClient() *scriptedGenerationClient {
	return &scriptedGenerationClient{
		answer: "The company cut Scope 1 emissions by 12% against its 2030 reduction target.",
		metricsJSON: `{"metrics": [
			{"category": "Carbon Emissions", "goal": "Net zero by 2040", "actual": "12% reduction achieved", "rag_status": "On Track"},
			{"category": "Workforce Diversity", "goal": "40% women in leadership by 2026", "actual": "31% at year end", "rag_status": "Needs Attention"}
		]}`,
	}
}

func (c *scriptedGenerationClient) Complete(_ context.Context, prompt service.ChatPrompt) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	if prompt.JSONMode {
		return c.metricsJSON, nil
	}
	return c.answer, nil
}

func (c *scriptedGenerationClient) SetAnswer(answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = answer
}

func (c *scriptedGenerationClient) SetMetricsJSON(payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metricsJSON = payload
}

func (c *scriptedGenerationClient) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// localEmbeddingClient produces deterministic unit vectors from text content,
// good enough for similarity search over the pgvector index.
type localEmbeddingClient struct{}

func (c *localEmbeddingClient) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDimensions)
	for i, b := range []byte(text) {
		vec[i%embeddingDimensions] += float32(b)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (c *localEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := c.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

var pdfTextEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// buildTestPDF renders the given lines as a one-page text PDF. Object offsets
// in the xref table are computed while writing, so the file is well formed.
func buildTestPDF(lines []string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", pdfTextEscaper.Replace(line))
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// sampleReportLines is enough text to produce multiple chunks when ingested.
func sampleReportLines() []string {
	lines := []string{
		"Sustainability Report 2023",
		"Our environmental program targets net zero carbon emissions by 2040.",
		"Scope 1 emissions fell 12% year over year against the 2030 interim target.",
		"Renewable electricity now covers 68% of total energy consumption.",
		"Workforce diversity: women hold 31% of leadership positions, up from 28%.",
		"Employee safety incidents declined to 0.8 per million hours worked.",
		"The board governance committee completed its annual ESG oversight review.",
		"Supplier audits covered 92% of tier one spend during the reporting period.",
	}
	// Repeat the body so the extracted text spans several chunks.
	out := make([]string, 0, len(lines)*12)
	for i := 0; i < 12; i++ {
		out = append(out, lines...)
	}
	return out
}
