package parser

import (
	"fmt"
	"io"
)

// ErrPDFNotSupported is returned for every PDF statement.
var ErrPDFNotSupported = fmt.Errorf("%w: pdf statements", ErrUnsupportedFormat)

// PDFParser is the placeholder for statement PDFs. Uploads are rejected before
// any byte is read so users get the "export as CSV" notice immediately.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser instance.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse always fails with ErrPDFNotSupported.
func (p *PDFParser) Parse(_ io.Reader) (*Table, error) {
	return nil, ErrPDFNotSupported
}
