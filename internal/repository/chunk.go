package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/verdantiq/esgpilot/internal/domain"
)

// ChunkRepository persists document chunks and their embeddings, and serves
// the similarity and full-text lookups behind retrieval.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, chunk_index, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6)`,
			c.ChunkID(),
			c.DocumentID,
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// SearchByVector returns the k chunks of a document closest to the query
// embedding by cosine distance.
func (r *ChunkRepository) SearchByVector(ctx context.Context, documentID string, embedding []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = 5
	}

	rows, err := r.db.Query(ctx,
		`SELECT document_id, chunk_index, content
		 FROM document_chunks
		 WHERE document_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		documentID, pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRetrievedChunks(rows)
}

// SearchByText runs a Postgres full-text query over the document's chunks,
// ranked by relevance. Used when the embedding path is unavailable.
func (r *ChunkRepository) SearchByText(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = 5
	}

	rows, err := r.db.Query(ctx,
		`SELECT document_id, chunk_index, content
		 FROM document_chunks
		 WHERE document_id = $1
		   AND to_tsvector('english', content) @@ plainto_tsquery('english', $2)
		 ORDER BY ts_rank(to_tsvector('english', content), plainto_tsquery('english', $2)) DESC
		 LIMIT $3`,
		documentID, query, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRetrievedChunks(rows)
}

// CountByDocument returns how many chunks are indexed for a document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}

func scanRetrievedChunks(rows pgx.Rows) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0)
	for rows.Next() {
		var chunk domain.RetrievedChunk
		if err := rows.Scan(&chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content); err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}
