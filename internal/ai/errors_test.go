package ai

import (
	"errors"
	"testing"
)

func TestAdapterErrorUnwrap(t *testing.T) {
	cause := Transient(errors.New("503"))
	err := &AdapterError{Kind: KindExtraction, Subject: "c1", Err: cause}

	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected extraction error")
	}
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient cause to be visible")
	}
	if errors.Is(err, ErrAnalysis) {
		t.Fatalf("did not expect analysis error")
	}
	if err.Error() != "extraction c1: transient adapter failure: 503" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrappersIgnoreNil(t *testing.T) {
	if Transient(nil) != nil || InvalidInput(nil) != nil || Unavailable(nil) != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}
