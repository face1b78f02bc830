package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verdantiq/esgpilot/internal/domain"
)

type InteractionRepository struct {
	db dbtx
}

func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: pool}
}

func NewInteractionRepositoryWithTx(tx pgx.Tx) *InteractionRepository {
	return &InteractionRepository{db: tx}
}

func (r *InteractionRepository) Create(ctx context.Context, interaction *domain.QAInteraction) error {
	citations, err := json.Marshal(interaction.Citations)
	if err != nil {
		return fmt.Errorf("failed to encode citations: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO qa_interactions (id, document_id, question, answer, citations, validated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		interaction.ID, interaction.DocumentID, interaction.Question, interaction.Answer,
		citations, interaction.Validated, interaction.CreatedAt,
	)
	return err
}

func (r *InteractionRepository) GetByID(ctx context.Context, id string) (*domain.QAInteraction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, document_id, question, answer, citations, validated, created_at
		 FROM qa_interactions WHERE id = $1`,
		id,
	)

	interaction, err := scanInteraction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInteractionNotFound
		}
		return nil, err
	}
	return interaction, nil
}

// SetValidated records the reviewer verdict. The flag is write-once: a row
// whose verdict is already set is left untouched and the call fails with
// ErrAlreadyValidated.
func (r *InteractionRepository) SetValidated(ctx context.Context, id string, isValid bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE qa_interactions SET validated = $1 WHERE id = $2 AND validated IS NULL`,
		isValid, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing row from one already validated.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrAlreadyValidated
}

func (r *InteractionRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.QAInteraction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, question, answer, citations, validated, created_at
		 FROM qa_interactions
		 WHERE document_id = $1
		 ORDER BY created_at ASC, id ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interactions := make([]*domain.QAInteraction, 0)
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

func scanInteraction(row pgx.Row) (*domain.QAInteraction, error) {
	var interaction domain.QAInteraction
	var citations []byte
	err := row.Scan(&interaction.ID, &interaction.DocumentID, &interaction.Question,
		&interaction.Answer, &citations, &interaction.Validated, &interaction.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(citations) > 0 {
		if err := json.Unmarshal(citations, &interaction.Citations); err != nil {
			return nil, fmt.Errorf("failed to decode citations: %w", err)
		}
	}
	if interaction.Citations == nil {
		interaction.Citations = []domain.Citation{}
	}
	return &interaction, nil
}
