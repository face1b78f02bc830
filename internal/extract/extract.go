// Package extract converts uploaded report files into plain text.
package extract

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"github.com/verdantiq/esgpilot/internal/domain"
)

// Extractor converts raw document bytes into UTF-8 text.
type Extractor struct{}

// NewExtractor creates a new Extractor instance
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Text extracts plain text from the raw bytes of a document. PDF pages are
// concatenated in page order; DOCX paragraphs in document order with a
// newline after each. Image-only pages contribute empty text, which is not
// an error.
func (e *Extractor) Text(data []byte, fileType domain.DocumentType) (string, error) {
	switch fileType {
	case domain.DocumentTypePDF:
		return pdfText(data)
	case domain.DocumentTypeDOCX:
		return docxText(data)
	default:
		return "", domain.ErrUnsupportedFormat
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to open pdf", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// A page without extractable text (scanned image) yields nothing.
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to open docx", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(para.String())
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
