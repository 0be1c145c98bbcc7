// Package llm - errors.go classifies provider failures into retryable and permanent kinds.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind is the classified cause of a provider failure
type ErrorKind string

const (
	// KindRateLimited is a 429 / resource-exhausted response
	KindRateLimited ErrorKind = "rate_limited"
	// KindUnavailable is a 503 / temporarily unavailable response
	KindUnavailable ErrorKind = "unavailable"
	// KindInvalidRequest covers malformed requests, auth failures and blocked content
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindOther is anything that could not be classified
	KindOther ErrorKind = "other"
)

// ProviderError is a classified failure from the language-model service.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("llm provider error (%s)", e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Transient reports whether waiting and retrying is expected to help.
func (e *ProviderError) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindUnavailable
}

// IsTransient reports whether err is (or wraps) a transient provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}

// KindOf returns the classified kind of err, or KindOther.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// KindFromStatus maps an HTTP status code to an ErrorKind.
func KindFromStatus(code int) ErrorKind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindUnavailable
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	default:
		return KindOther
	}
}

func kindFromCode(code codes.Code) ErrorKind {
	switch code {
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unavailable:
		return KindUnavailable
	case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied,
		codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
		return KindInvalidRequest
	default:
		return KindOther
	}
}

// Classify wraps err in a *ProviderError. Already-classified errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindOther, Message: "request abandoned", Cause: err}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ProviderError{Kind: KindInvalidRequest, Message: "content blocked", Cause: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &ProviderError{Kind: KindFromStatus(gerr.Code), StatusCode: gerr.Code, Cause: err}
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if code := aerr.HTTPCode(); code > 0 {
			return &ProviderError{Kind: KindFromStatus(code), StatusCode: code, Cause: err}
		}
		if st := aerr.GRPCStatus(); st != nil {
			return &ProviderError{Kind: kindFromCode(st.Code()), Cause: err}
		}
	}

	if st, ok := status.FromError(err); ok {
		return &ProviderError{Kind: kindFromCode(st.Code()), Cause: err}
	}

	// Last resort: some transports only surface the status in the message text
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return &ProviderError{Kind: KindRateLimited, StatusCode: http.StatusTooManyRequests, Cause: err}
	case strings.Contains(msg, "503") || strings.Contains(msg, "service unavailable"):
		return &ProviderError{Kind: KindUnavailable, StatusCode: http.StatusServiceUnavailable, Cause: err}
	}

	return &ProviderError{Kind: KindOther, Cause: err}
}
