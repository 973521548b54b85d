// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "reorder mission"},
			expected: "failed to reorder mission",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "reorder mission", Resource: "op.miz"},
			expected: "failed to reorder mission: op.miz",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "load configuration", Cause: errors.New("jobs: out of bounds")},
			expected: "failed to load configuration: jobs: out of bounds",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "check mission",
				Resource:  "op.miz",
				Cause:     errors.New("missing required member(s): warehouses"),
			},
			expected: "failed to check mission: op.miz: missing required member(s): warehouses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("line 3, column 5: unterminated string")
	err := &ActionableError{
		Operation:   "reorder mission",
		Resource:    "op.miz",
		Suggestions: []string{"Run 'mizkit check op.miz'", "Re-save the mission"},
		Cause:       fmt.Errorf("decode mission: %w", root),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to reorder mission", "  • Run 'mizkit check op.miz'", "  • Re-save the mission"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) includes the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. decode mission: line 3", "2. line 3, column 5"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("not found")
	err := NewErrorContext().
		WithOperation("reorder mission").
		WithResource("op.miz").
		Wrap(fmt.Errorf("open: %w", sentinel)).
		BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is() through ActionableError = false")
	}

	var ae *ActionableError
	if !errors.As(fmt.Errorf("cli: %w", err), &ae) {
		t.Fatal("errors.As() = false")
	}
	if ae.Resource != "op.miz" {
		t.Errorf("Resource = %q, want op.miz", ae.Resource)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("format mission").
		WithResource("op.miz").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithIssue(MizStructureId).
		Wrap(cause).
		Build()

	if ae.Operation != "format mission" || ae.Resource != "op.miz" || ae.Cause != cause {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v, want 3 entries", ae.Suggestions)
	}
	if got := ae.Issue(); got == nil || got.Id() != MizStructureId {
		t.Errorf("Issue() = %v, want the structure issue", got)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("op.miz").Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := NewErrorContext().Wrap(errors.New("x")).BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
	if (&ActionableError{Operation: "check mission"}).Issue() != nil {
		t.Error("Issue() without an ID should be nil")
	}
}
