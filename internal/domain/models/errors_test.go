package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorsUnwrapToSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&InsufficientHistoryError{EntityID: "p1", Have: 10, Need: 60}, ErrInsufficientHistory},
		{&TrainingFailureError{EntityID: "p1", Causes: map[string]string{"linear": "singular"}}, ErrTrainingFailure},
		{&MalformedRecordError{EntityID: "p1", Reason: "negative target"}, ErrMalformedRecord},
		{&DegradedError{EntityID: "p1", Cause: context.Canceled}, ErrConfidenceDegraded},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("pipeline: %w", c.err)
		if !errors.Is(wrapped, c.sentinel) {
			t.Fatalf("%v does not match %v", wrapped, c.sentinel)
		}
	}
}

func TestDegradedErrorKeepsCause(t *testing.T) {
	err := &DegradedError{EntityID: "p1", Cause: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause lost")
	}
}

func TestMalformedRecordErrorCarriesEntity(t *testing.T) {
	var me *MalformedRecordError
	err := fmt.Errorf("features: %w", &MalformedRecordError{EntityID: "prod_007", Reason: "missing price"})
	if !errors.As(err, &me) || me.EntityID != "prod_007" {
		t.Fatalf("entity not recoverable from %v", err)
	}
}
