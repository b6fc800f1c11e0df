package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrTrainingFailure     = errors.New("training failure")
	ErrConfidenceDegraded  = errors.New("confidence estimation degraded")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrEntityNotFound      = errors.New("entity not found")
)

// InsufficientHistoryError means the entity has fewer records than the operation needs.
type InsufficientHistoryError struct {
	EntityID string
	Have     int
	Need     int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: %s has %d records, need %d", ErrInsufficientHistory, e.EntityID, e.Have, e.Need)
}

func (e *InsufficientHistoryError) Unwrap() error { return ErrInsufficientHistory }

// TrainingFailureError means no candidate regressor produced a usable held-out score.
type TrainingFailureError struct {
	EntityID string
	Causes   map[string]string
}

func (e *TrainingFailureError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for k, v := range e.Causes {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrTrainingFailure, e.EntityID, strings.Join(parts, "; "))
}

func (e *TrainingFailureError) Unwrap() error { return ErrTrainingFailure }

// MalformedRecordError identifies the offending entity and day.
type MalformedRecordError struct {
	EntityID string
	Date     time.Time
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%s: %s: %s", ErrMalformedRecord, e.EntityID, e.Reason)
	}
	return fmt.Sprintf("%s: %s@%s: %s", ErrMalformedRecord, e.EntityID, e.Date.Format("2006-01-02"), e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// DegradedError accompanies a usable fallback interval.
type DegradedError struct {
	EntityID string
	Cause    error
}

func (e *DegradedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", ErrConfidenceDegraded, e.EntityID)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConfidenceDegraded, e.EntityID, e.Cause)
}

func (e *DegradedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConfidenceDegraded}
	}
	return []error{ErrConfidenceDegraded, e.Cause}
}
