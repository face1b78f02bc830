package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verdantiq/esgpilot/internal/domain"
)

type MetricRepository struct {
	db dbtx
}

func NewMetricRepository(pool *pgxpool.Pool) *MetricRepository {
	return &MetricRepository{db: pool}
}

func NewMetricRepositoryWithTx(tx pgx.Tx) *MetricRepository {
	return &MetricRepository{db: tx}
}

func (r *MetricRepository) Create(ctx context.Context, metric *domain.Metric) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO esg_metrics (id, document_id, category, goal, actual, rag_status, extracted_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		metric.ID, metric.DocumentID, metric.Category, metric.Goal, metric.Actual,
		metric.RAGStatus, metric.ExtractedBy, metric.CreatedAt,
	)
	return err
}

func (r *MetricRepository) GetByID(ctx context.Context, id string) (*domain.Metric, error) {
	var metric domain.Metric
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, category, goal, actual, rag_status, extracted_by, created_at
		 FROM esg_metrics WHERE id = $1`,
		id,
	).Scan(&metric.ID, &metric.DocumentID, &metric.Category, &metric.Goal, &metric.Actual,
		&metric.RAGStatus, &metric.ExtractedBy, &metric.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMetricNotFound
		}
		return nil, err
	}
	return &metric, nil
}

func (r *MetricRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.Metric, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, category, goal, actual, rag_status, extracted_by, created_at
		 FROM esg_metrics WHERE document_id = $1 ORDER BY created_at ASC, id ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]*domain.Metric, 0)
	for rows.Next() {
		var metric domain.Metric
		if err := rows.Scan(&metric.ID, &metric.DocumentID, &metric.Category, &metric.Goal,
			&metric.Actual, &metric.RAGStatus, &metric.ExtractedBy, &metric.CreatedAt); err != nil {
			return nil, err
		}
		metrics = append(metrics, &metric)
	}
	return metrics, rows.Err()
}

func (r *MetricRepository) Update(ctx context.Context, metric *domain.Metric) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE esg_metrics
		 SET category = $1, goal = $2, actual = $3, rag_status = $4
		 WHERE id = $5`,
		metric.Category, metric.Goal, metric.Actual, metric.RAGStatus, metric.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMetricNotFound
	}
	return nil
}
