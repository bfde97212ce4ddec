package errors

import (
	stderrors "errors"
	"testing"
)

func TestOperationErrorMessage(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := FailedToWithDetails("put event", "postgres-store", "evt-123", cause)

	want := "failed to put event, component: postgres-store, resource: evt-123, cause: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if stderrors.Unwrap(err) != cause {
		t.Error("Unwrap should return the original cause")
	}
}

func TestFailedToOmitsEmptyResource(t *testing.T) {
	err := FailedTo("connect", "redis-queue", nil)
	want := "failed to connect, component: redis-queue"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestChainSkipsNils(t *testing.T) {
	if Chain(nil, nil) != nil {
		t.Error("Chain of all nils should return nil")
	}
	e1 := stderrors.New("first")
	e2 := stderrors.New("second")
	chained := Chain(nil, e1, e2)
	if chained == nil {
		t.Fatal("Chain should return a non-nil error")
	}
}

func TestIsRetryableClassification(t *testing.T) {
	cause := stderrors.New("deadline exceeded")

	retryableCases := []error{
		DatabaseError("scan", "postgres-store", cause),
		NetworkError("publish", "redis-queue", cause),
		TimeoutError("receive", "redis-queue", cause),
	}
	for _, err := range retryableCases {
		if !IsRetryable(err) {
			t.Errorf("expected %v to be retryable", err)
		}
	}

	notRetryableCases := []error{
		ValidationError("parse body", "ingestor", cause),
		ConfigurationError("load config", "ingestor", cause),
		AuthenticationError("verify token", "ingestor", cause),
		AuthorizationError("check scope", "ingestor", cause),
		ParseError("decode json", "ingestor", cause),
	}
	for _, err := range notRetryableCases {
		if IsRetryable(err) {
			t.Errorf("expected %v to not be retryable", err)
		}
	}

	if IsRetryable(stderrors.New("plain error")) {
		t.Error("an unclassified error should not be retryable")
	}
}
