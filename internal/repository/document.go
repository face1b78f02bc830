package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verdantiq/esgpilot/internal/domain"
	"github.com/verdantiq/esgpilot/internal/pagination"
	"github.com/verdantiq/esgpilot/internal/service"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, file_name, file_type, storage_key, processed, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.FileName, doc.FileType, nullableString(doc.StorageKey), doc.Processed, doc.UploadedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, file_name, file_type, storage_key, processed, uploaded_at
		 FROM documents WHERE id = $1`,
		id,
	)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) MarkProcessed(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET processed = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, file_name, file_type, storage_key, processed, uploaded_at
			 FROM documents
			 WHERE (uploaded_at, id) < ($1, $2)
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, file_name, file_type, storage_key, processed, uploaded_at
			 FROM documents
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UploadedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListUnprocessed returns documents whose ingestion never completed, oldest
// first, so the re-ingest worker can retry them.
func (r *DocumentRepository) ListUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, file_name, file_type, storage_key, processed, uploaded_at
		 FROM documents
		 WHERE processed = FALSE AND storage_key IS NOT NULL AND uploaded_at < $1
		 ORDER BY uploaded_at ASC
		 LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var storageKey *string
	err := row.Scan(&doc.ID, &doc.FileName, &doc.FileType, &storageKey, &doc.Processed, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	if storageKey != nil {
		doc.StorageKey = *storageKey
	}
	return &doc, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
