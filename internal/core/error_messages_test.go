package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/JonMunkholm/ledgeraudit/internal/report"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "invalid tolerance",
			err:         fmt.Errorf("%w %q: not a number", audit.ErrInvalidTolerance, "abc"),
			wantCode:    "IN001",
			wantMessage: "The tolerance is not a valid number",
		},
		{
			name:        "unsupported format",
			err:         fmt.Errorf("%w: %q", ledger.ErrUnsupportedFormat, ".pdf"),
			wantCode:    "IN002",
			wantMessage: "This file format is not supported",
		},
		{
			name:     "output format",
			err:      fmt.Errorf("%w: %s", ErrOutputFormat, "out.csv"),
			wantCode: "IN003",
		},
		{
			name:        "unreadable file",
			err:         fmt.Errorf("%w %s: permission denied", ledger.ErrUnreadable, "a.csv"),
			wantCode:    "FILE001",
			wantMessage: "The ledger file could not be read",
		},
		{
			name:     "malformed table",
			err:      fmt.Errorf("a.csv: %w: no header row", ledger.ErrMalformed),
			wantCode: "FILE002",
		},
		{
			name:     "body too large by text",
			err:      errors.New("http: request body too large"),
			wantCode: "FILE003",
		},
		{
			name:     "no file",
			err:      ErrNoFile,
			wantCode: "FILE004",
		},
		{
			name:        "write failure",
			err:         fmt.Errorf("%w %s: disk full", report.ErrWrite, "out.xlsx"),
			wantCode:    "OUT001",
			wantMessage: "The report could not be saved",
		},
		{
			name:     "busy",
			err:      ErrBusy,
			wantCode: "RUN001",
		},
		{
			name:     "cancelled",
			err:      fmt.Errorf("load: %w", context.Canceled),
			wantCode: "RUN002",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: "RUN002",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "user error keeps its message",
			err:      fmt.Errorf("inbox: %w", NewUserError(ErrNoFile)),
			wantCode: "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("%w %q: not a number", audit.ErrInvalidTolerance, "abc")
	result := FormatUserError(err)

	expected := "The tolerance is not a valid number (Code: IN001). Enter a plain number such as 100000 or 2500.50"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ledger.ErrMalformed, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInputError(t *testing.T) {
	if !IsInputError(audit.ErrInvalidTolerance) {
		t.Error("tolerance error should be an input error")
	}
	if !IsInputError(ledger.ErrUnsupportedFormat) {
		t.Error("format error should be an input error")
	}
	if IsInputError(ledger.ErrUnreadable) {
		t.Error("unreadable file is not an input error")
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w %s: disk full", report.ErrWrite, "out.xlsx")
		userErr := NewUserError(techErr)

		if userErr.Error() != "The report could not be saved" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, report.ErrWrite) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
