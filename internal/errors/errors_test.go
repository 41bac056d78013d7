package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(ConfigurationError, "duplicate analyzer id", cause)

	if err.Code != ConfigurationError {
		t.Errorf("Code = %v, want %v", err.Code, ConfigurationError)
	}
	if err.Message != "duplicate analyzer id" {
		t.Errorf("Message = %q, want %q", err.Message, "duplicate analyzer id")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ScanFailed,
			message:   "cannot read root",
			cause:     errors.New("permission denied"),
			wantParts: []string{"SCAN_FAILED", "cannot read root", "permission denied"},
		},
		{
			name:      "without cause",
			code:      PluginFault,
			message:   "analyzer 'x' panicked",
			cause:     nil,
			wantParts: []string{"PLUGIN_FAULT", "analyzer 'x' panicked"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	if New(InternalError, "no cause", nil).Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := Newf(InvalidPolicy, "layer %q unknown", "infra")
	wrapped := fmt.Errorf("loading policy: %w", inner)

	if got := CodeOf(wrapped); got != InvalidPolicy {
		t.Errorf("CodeOf() = %q, want %q", got, InvalidPolicy)
	}
	if !HasCode(wrapped, InvalidPolicy) {
		t.Error("HasCode() = false, want true")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("CodeOf(plain error) should be empty")
	}
	if !errors.Is(wrapped, New(InvalidPolicy, "", nil)) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(wrapped, New(ScanFailed, "", nil)) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestSuggestedFixes(t *testing.T) {
	if fixes := SuggestedFixes(DependencyCycle); len(fixes) == 0 {
		t.Error("expected fixes for DependencyCycle")
	}
	if fixes := SuggestedFixes(InternalError); fixes != nil {
		t.Errorf("expected no fixes for InternalError, got %v", fixes)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(UnknownDependency, "missing", nil).WithDetails(map[string]string{"analyzer": "ranking"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["analyzer"] != "ranking" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "boom"},
		{"coded", Newf(PluginFault, "panic: %s", "boom"), "panic: boom"},
		{"coded with cause", New(ScanFailed, "cannot read root", errors.New("permission denied")), "cannot read root: permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
