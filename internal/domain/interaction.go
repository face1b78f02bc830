package domain

import (
	"fmt"
	"time"
)

// QAInteraction represents one answered question over a document, with the
// citations that backed the answer. Append-only except for Validated, which a
// reviewer sets exactly once.
type QAInteraction struct {
	ID         string
	DocumentID string
	Question   string
	Answer     string
	Citations  []Citation
	Validated  *bool
	CreatedAt  time.Time
}

// NewQAInteraction creates a new QAInteraction instance
func NewQAInteraction(id, documentID, question, answer string, citations []Citation, createdAt time.Time) *QAInteraction {
	if citations == nil {
		citations = []Citation{}
	}
	return &QAInteraction{
		ID:         id,
		DocumentID: documentID,
		Question:   question,
		Answer:     answer,
		Citations:  citations,
		Validated:  nil,
		CreatedAt:  createdAt,
	}
}

// ValidateQAInteraction validates a QAInteraction instance
func ValidateQAInteraction(i *QAInteraction) error {
	if i == nil {
		return fmt.Errorf("qa interaction cannot be nil")
	}

	if i.ID == "" {
		return fmt.Errorf("qa interaction ID is required")
	}

	if i.DocumentID == "" {
		return fmt.Errorf("qa interaction DocumentID is required")
	}

	if i.Question == "" {
		return fmt.Errorf("qa interaction Question is required")
	}

	if i.Answer == "" {
		return fmt.Errorf("qa interaction Answer is required")
	}

	return nil
}
