package domain

import (
	"fmt"
	"time"
)

// DocumentType represents the declared format of an uploaded report
type DocumentType string

const (
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeDOCX DocumentType = "docx"
)

// Document represents an uploaded ESG report. Processed stays false until the
// full ingestion pipeline (extract, chunk, embed, index) has completed.
type Document struct {
	ID         string
	FileName   string
	FileType   DocumentType
	StorageKey string // object storage key of the archived raw file, empty when archival is disabled
	Processed  bool
	UploadedAt time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, fileName string, fileType DocumentType, uploadedAt time.Time) *Document {
	return &Document{
		ID:         id,
		FileName:   fileName,
		FileType:   fileType,
		Processed:  false,
		UploadedAt: uploadedAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.FileName == "" {
		return fmt.Errorf("document FileName is required")
	}

	if !IsValidDocumentType(d.FileType) {
		return fmt.Errorf("document FileType is invalid: %s", d.FileType)
	}

	return nil
}

// IsValidDocumentType checks if a DocumentType is valid
func IsValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypePDF, DocumentTypeDOCX:
		return true
	}
	return false
}
