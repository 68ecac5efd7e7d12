package service

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
)

// Severity of a user-facing notice.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notice is a short, non-technical message for the person importing.
type Notice struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ImportedNotice reports a successful import.
func ImportedNotice(n int) Notice {
	return Notice{Message: fmt.Sprintf("Imported %d transactions!", n), Severity: SeveritySuccess}
}

// NoticeFor maps a failed import to the notice shown to the user.
func NoticeFor(err error) Notice {
	switch {
	case errors.Is(err, parser.ErrPDFNotSupported):
		return Notice{Message: "PDF support coming soon! Please export your bank statement as CSV or Excel.", Severity: SeverityInfo}
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return Notice{Message: "This file type is not supported. Please export your bank statement as CSV or Excel.", Severity: SeverityInfo}
	case errors.Is(err, parser.ErrDecoderUnavailable):
		return Notice{Message: "Excel support is not available. Try CSV instead.", Severity: SeverityInfo}
	case errors.Is(err, parser.ErrDecodeParseFailure):
		return Notice{Message: "Could not parse file. Please check the format.", Severity: SeverityError}
	case errors.Is(err, ErrCancelled):
		return Notice{Message: "Import cancelled. No transactions were added.", Severity: SeverityInfo}
	case errors.Is(err, ErrConfirmationRequired):
		return Notice{Message: "Please confirm which columns hold the date, description and amount.", Severity: SeverityInfo}
	default:
		return Notice{Message: "Import failed. No transactions were added.", Severity: SeverityError}
	}
}
