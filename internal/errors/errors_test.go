package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorType_IsFatal(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{MalformedCapture, true},
		{Validation, true},
		{IO, true},
		{BodyEncoding, false},
		{SchemaConflict, false},
		{Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			if got := tt.errType.IsFatal(); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalysisError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIO("out.yaml", "write_spec", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if GetErrorType(err) != IO {
		t.Errorf("GetErrorType() = %v, want IO", GetErrorType(err))
	}
	if GetErrorType(fmt.Errorf("plain")) != Unknown {
		t.Error("plain errors should map to Unknown")
	}
}

func TestAnalysisError_Is(t *testing.T) {
	a := NewMalformedCapture("a.har", "broken", nil)
	b := NewMalformedCapture("b.har", "also broken", nil)

	if !errors.Is(a, b) {
		t.Error("errors of the same type should match")
	}
	if errors.Is(a, NewValidation("doc", "bad")) {
		t.Error("errors of different types should not match")
	}
}

func TestNewSchemaConflict(t *testing.T) {
	err := NewSchemaConflict("GET /items/{itemId} request $.id", []string{"integer", "string"})

	if err.Type != SchemaConflict {
		t.Errorf("Type = %v, want SchemaConflict", err.Type)
	}
	if err.Type.IsFatal() {
		t.Error("schema conflicts must stay recoverable")
	}
	for _, want := range []string{"$.id", "integer", "string", "union"} {
		if !strings.Contains(err.Message, want) {
			t.Errorf("Message = %q, want it to contain %q", err.Message, want)
		}
	}
}

func TestAnalysisError_EntryInMessage(t *testing.T) {
	err := NewBodyEncoding("cap.har", 7, "br")
	msg := err.Error()
	if want := "cap.har entry 7"; !strings.Contains(msg, want) {
		t.Errorf("Error() = %q, want it to contain %q", msg, want)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	if c.Count() != 0 {
		t.Fatalf("new collector Count() = %d", c.Count())
	}

	c.Add(NewBodyEncoding("a.har", 2, "br"))
	c.Addf(SchemaConflict, "", -1, "field %s conflicted", "$.id")

	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}

	warns := c.Warnings()
	if warns[0].Type != BodyEncoding || warns[0].Entry != 2 {
		t.Errorf("first warning = %+v", warns[0])
	}
	if warns[1].Type != SchemaConflict || warns[1].Message != "field $.id conflicted" {
		t.Errorf("second warning = %+v", warns[1])
	}
}
