package printing

import (
	"errors"

	"github.com/invoicer/backend/internal/domain/invoice"
)

// DocumentRenderer turns an invoice and its totals into a finished document
type DocumentRenderer interface {
	// Compose returns the complete document bytes or an error, never both
	Compose(data invoice.InvoiceData, totals invoice.Totals) ([]byte, error)
}

// Fingerprinter is implemented by renderers whose output also depends on
// their own settings. Equal fingerprints mean equal bytes for equal input.
type Fingerprinter interface {
	Fingerprint() string
}

// RenderError represents an error while drawing or encoding a document
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeInvalidCoordinate = "INVALID_COORDINATE"
	ErrCodeInvalidPaperSize  = "INVALID_PAPER_SIZE"
	ErrCodeFontLoadFailed    = "FONT_LOAD_FAILED"
	ErrCodeEncodingFailed    = "ENCODING_FAILED"
	ErrCodeStorageFailed     = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRenderError reports whether err is a rendering failure
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
