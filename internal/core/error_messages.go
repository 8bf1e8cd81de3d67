package core

// # Error Codes Reference
//
// This file maps pipeline errors to user-facing messages with codes for
// support reference. Callers (CLI, HTTP, inbox) show the message and code;
// the technical error is kept for the logs.
//
// # Input Errors (IN001-IN099)
//
// Raised before the source is read or any output is written:
//
//	IN001 - Invalid tolerance: the tolerance is not a number
//	        Action: Enter a plain number such as 100000 or 2500.50
//
//	IN002 - Unsupported format: the file extension has no decoder
//	        Action: Upload a .csv, .txt, .xlsx, .xlsm or .xls export
//
//	IN003 - Invalid destination: the report must be an .xlsx file
//	        Action: Choose an output path ending in .xlsx
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unreadable: the ledger file cannot be opened or read
//	FILE002 - Malformed: the file holds no usable table (no header row)
//	FILE003 - Too large: the upload exceeds UPLOAD_MAX_FILE_SIZE
//	FILE004 - No file: the request carried no ledger file
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Write failed: the workbook could not be written to its destination
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Busy: all run slots stayed occupied for AUDIT_MAX_WAIT_TIME
//	RUN002 - Cancelled: the run was cancelled or exceeded its deadline
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// # Matching
//
// Sentinels are matched with errors.Is, then text patterns case-insensitively
// with strings.Contains. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/JonMunkholm/ledgeraudit/internal/report"
)

var (
	// ErrOutputFormat is returned when the destination is not an .xlsx path.
	ErrOutputFormat = errors.New("output must be an .xlsx file")

	// ErrFileTooLarge is returned by transports that cap upload size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a request names no ledger file.
	ErrNoFile = errors.New("no file provided")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern maps a sentinel or a text pattern to a user message.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

func (p errorPattern) matches(err error, text string) bool {
	if p.target != nil && errors.Is(err, p.target) {
		return true
	}
	return p.pattern != "" && strings.Contains(text, p.pattern)
}

// errorPatterns is ordered: input errors first, then file, output and run errors.
var errorPatterns = []errorPattern{
	// Input errors
	{
		target: audit.ErrInvalidTolerance,
		msg: UserMessage{
			Message: "The tolerance is not a valid number",
			Action:  "Enter a plain number such as 100000 or 2500.50",
			Code:    "IN001",
		},
	},
	{
		target: ledger.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "This file format is not supported",
			Action:  "Upload a .csv, .txt, .xlsx, .xlsm or .xls export",
			Code:    "IN002",
		},
	},
	{
		target: ErrOutputFormat,
		msg: UserMessage{
			Message: "The report must be saved as an .xlsx file",
			Action:  "Choose an output path ending in .xlsx",
			Code:    "IN003",
		},
	},

	// File errors
	{
		target: ledger.ErrUnreadable,
		msg: UserMessage{
			Message: "The ledger file could not be read",
			Action:  "Check that the file exists and is not open in another program",
			Code:    "FILE001",
		},
	},
	{
		target: ledger.ErrMalformed,
		msg: UserMessage{
			Message: "The ledger file does not contain a table",
			Action:  "Make sure the first row holds the column headers",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrFileTooLarge,
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the ledger by period and audit each part",
			Code:    "FILE003",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No ledger file was selected",
			Action:  "Please select a ledger export to audit",
			Code:    "FILE004",
		},
	},

	// Output errors
	{
		target: report.ErrWrite,
		msg: UserMessage{
			Message: "The report could not be saved",
			Action:  "Check that the destination folder exists and the file is not open",
			Code:    "OUT001",
		},
	},

	// Run errors
	{
		target: ErrBusy,
		msg: UserMessage{
			Message: "The system is busy with other audits",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The audit was cancelled",
			Action:  "Start the audit again when ready",
			Code:    "RUN002",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The audit took too long and was stopped",
			Action:  "Try a smaller ledger or raise AUDIT_RUN_TIMEOUT",
			Code:    "RUN002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	_, err := svc.Run(ctx, core.Request{Tolerance: "abc"})
//	msg := MapError(err)
//	// msg.Code == "IN001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.matches(err, text) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsInputError reports whether err was raised before any read or write.
func IsInputError(err error) bool {
	return strings.HasPrefix(MapError(err).Code, "IN")
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
