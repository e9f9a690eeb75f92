package backend

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("poll: %w", &Error{Kind: KindTransportFailure, Op: "questions", Err: errors.New("dial tcp")})
	kind, ok := KindOf(err)
	if !ok || kind != KindTransportFailure {
		t.Fatalf("expected transport failure, got %v %v", kind, ok)
	}
	if !IsTransport(err) {
		t.Fatal("expected IsTransport")
	}
	if IsTransport(errors.New("plain")) {
		t.Fatal("plain error is not a transport failure")
	}
}

func TestUserMessage(t *testing.T) {
	e := &Error{Kind: KindValidationFailed, Op: "answer", Message: "Answer is required", StatusCode: 400}
	if e.UserMessage() != "Answer is required" {
		t.Fatalf("unexpected message %q", e.UserMessage())
	}
	if e.Error() != "answer: validation_failed (status 400): Answer is required" {
		t.Fatalf("unexpected error string %q", e.Error())
	}
	if (&Error{Kind: KindTransportFailure}).UserMessage() == "" {
		t.Fatal("expected fallback message")
	}
}

func TestQuestionTechnical(t *testing.T) {
	if !(Question{Type: "technical"}).Technical() || (Question{Type: "behavioral"}).Technical() {
		t.Fatal("unexpected technical classification")
	}
}
