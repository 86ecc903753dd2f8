package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []StringField
		expect map[string]string
	}{
		{
			name:   "trims keys and values",
			input:  []StringField{{Key: "  session_id  ", Value: "  iv-abc  "}},
			expect: map[string]string{"session_id": "iv-abc"},
		},
		{
			name: "drops blank entries",
			input: []StringField{
				{Key: "category", Value: "   "},
				{Key: "   ", Value: "orphan"},
			},
			expect: map[string]string{},
		},
		{
			name:   "no input",
			expect: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := StringFields(tt.input...)
			if len(fields) != len(tt.expect) {
				t.Fatalf("expected %d fields, got %d", len(tt.expect), len(fields))
			}
			for _, f := range fields {
				if tt.expect[f.Key] != f.String {
					t.Fatalf("unexpected field %q=%q", f.Key, f.String)
				}
			}
		})
	}
}

func TestWithFieldsAttachesContext(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("session_id", "iv-1")).Info("answer evaluated")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["session_id"]; got != "iv-1" {
		t.Fatalf("expected session_id iv-1, got %v", got)
	}

	// nil falls back to a no-op logger.
	WithFields(nil, zap.String("k", "v")).Info("dropped")
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), " gemini ", "gemini-2.5-flash").Info("oracle ready")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider gemini, got %v", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-2.5-flash" {
		t.Fatalf("expected model gemini-2.5-flash, got %v", ctx[FieldModel])
	}

	if got := CommonFields("", ""); len(got) != 0 {
		t.Fatalf("expected no fields, got %d", len(got))
	}
}

func TestSessionFields(t *testing.T) {
	type category string

	fields := SessionFields("iv-1", category("role"))
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldSession || fields[0].String != "iv-1" {
		t.Fatalf("unexpected session field: %+v", fields[0])
	}

	if fields[1].Key != FieldCategory || fields[1].String != "role" {
		t.Fatalf("unexpected category field: %+v", fields[1])
	}

	if got := SessionFields("iv-1", ""); len(got) != 1 {
		t.Fatalf("expected empty category to be omitted, got %d fields", len(got))
	}
}

func TestNew(t *testing.T) {
	log, err := New(Options{JSON: true, Debug: true, Output: t.TempDir() + "/out.log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}
