package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeCanceled,
		CodeScanFormat,
		CodeMapFormat,
		CodeTemplateNotFound,
		CodeNotInitialized,
		CodeResolveFailed,
		CodeFileNotFound,
		CodeFilePermission,
		CodeFileWrite,
		CodeDirectoryCreate,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
	}
}

func TestParseError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewParseError(CodeScanFormat, "bad scan line")
		if err.Code != CodeScanFormat {
			t.Errorf("Expected code %s, got %s", CodeScanFormat, err.Code)
		}
		if err.Context == nil {
			t.Error("Context should be initialized")
		}
		expected := "[SCAN_FORMAT] bad scan line"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("error with source and line", func(t *testing.T) {
		err := NewParseErrorAtLine(CodeScanFormat, "bad port", 4).WithSource("scan.gnmap")
		expected := "[SCAN_FORMAT] bad port (source: scan.gnmap, line: 4)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("error with line only", func(t *testing.T) {
		err := NewParseErrorAtLine(CodeMapFormat, "short row", 2)
		expected := "[MAP_FORMAT] short row (line: 2)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("disk gone")
		err := WrapParseError(CodeFilePermission, "cannot read", cause)
		if err.Unwrap() != cause {
			t.Error("Wrapped error should be unwrappable")
		}
		expected := "[FILE_PERMISSION] cannot read: disk gone"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("with context", func(t *testing.T) {
		err := NewParseError(CodeScanFormat, "bad")
		err.WithContext("descriptor", "80/open").WithContext("fields", 2)

		if err.Context["descriptor"] != "80/open" {
			t.Errorf("Expected descriptor '80/open', got %v", err.Context["descriptor"])
		}
		if err.Context["fields"] != 2 {
			t.Errorf("Expected fields 2, got %v", err.Context["fields"])
		}
	})
}

func TestNoteError(t *testing.T) {
	t.Run("with path", func(t *testing.T) {
		err := NewNoteError(CodeFileWrite, "write failed", "/tmp/a.md")
		expected := "[FILE_WRITE] write failed (path: /tmp/a.md)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		err := ErrTemplateNotFound("/t/Internal-Host.md", os.ErrNotExist)
		if !errors.Is(err, os.ErrNotExist) {
			t.Error("Should unwrap to os.ErrNotExist")
		}
		if err.Code != CodeTemplateNotFound {
			t.Errorf("Expected code %s, got %s", CodeTemplateNotFound, err.Code)
		}
	})
}

func TestConfigError(t *testing.T) {
	t.Run("basic config error", func(t *testing.T) {
		err := NewConfigError(CodeConfiguration, "config invalid")
		expected := "[CONFIGURATION] config invalid"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("config field error", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "invalid level", "logging.level", "loud")
		if err.Field != "logging.level" {
			t.Errorf("Expected field 'logging.level', got '%s'", err.Field)
		}
		expected := "[VALIDATION] invalid level (field: logging.level)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped config error", func(t *testing.T) {
		cause := fmt.Errorf("file not found")
		err := WrapConfigError(CodeFileNotFound, "config file missing", cause)
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})
}

func TestUtilityFunctions(t *testing.T) {
	t.Run("GetCode", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected ErrorCode
		}{
			{"parse error", NewParseError(CodeScanFormat, "x"), CodeScanFormat},
			{"note error", NewNoteError(CodeFileWrite, "x", "p"), CodeFileWrite},
			{"config error", NewConfigError(CodeConfiguration, "x"), CodeConfiguration},
			{"wrapped parse error", fmt.Errorf("phase: %w", ErrPortDescriptor(3, "80/open", 2)), CodeScanFormat},
			{"standard error", fmt.Errorf("standard error"), CodeUnknown},
			{"nil error", nil, CodeUnknown},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := GetCode(tt.err); got != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, got)
				}
			})
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		if !IsCode(ErrFileNotFound("x", os.ErrNotExist), CodeFileNotFound) {
			t.Error("Expected file not found code")
		}
		if IsCode(nil, CodeUnknown) {
			t.Error("nil error should not match any code")
		}
	})

	t.Run("IsFatal", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected bool
		}{
			{"scan format", ErrPortDescriptor(1, "x", 1), true},
			{"template missing", ErrTemplateNotFound("t", nil), true},
			{"missing input", ErrFileNotFound("in.txt", os.ErrNotExist), false},
			{"short map row", NewParseErrorAtLine(CodeMapFormat, "short", 2), false},
			{"invalid config", NewConfigFieldError(CodeValidation, "bad", "Config.Resolve.Timeout", 0), true},
			{"unreadable input", ErrFileUnreadable("in.txt", os.ErrPermission), false},
			{"plain error", fmt.Errorf("boom"), false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := IsFatal(tt.err); got != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, got)
				}
			})
		}
	})
}

func TestErrPortDescriptor(t *testing.T) {
	err := ErrPortDescriptor(7, "80/open/tcp", 3)
	if err.Line != 7 {
		t.Errorf("Expected line 7, got %d", err.Line)
	}
	if err.Context["descriptor"] != "80/open/tcp" {
		t.Errorf("Expected descriptor in context, got %v", err.Context["descriptor"])
	}
	expected := `[SCAN_FORMAT] Port descriptor "80/open/tcp" has 3 fields, expected 8 (line: 7)`
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

func TestAsAndIs(t *testing.T) {
	base := NewParseErrorAtLine(CodeScanFormat, "bad line", 3)
	wrapped := fmt.Errorf("gnmap: %w", base)

	var perr *ParseError
	if !As(wrapped, &perr) {
		t.Fatal("As did not find the ParseError")
	}
	if perr.Line != 3 {
		t.Errorf("Line = %d, want 3", perr.Line)
	}
	if !Is(wrapped, base) {
		t.Error("Is did not match the wrapped error")
	}
}
