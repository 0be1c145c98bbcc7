package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify_GoogleAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantKind  ErrorKind
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited, true},
		{"unavailable", http.StatusServiceUnavailable, KindUnavailable, true},
		{"bad request", http.StatusBadRequest, KindInvalidRequest, false},
		{"unauthorized", http.StatusUnauthorized, KindInvalidRequest, false},
		{"internal", http.StatusInternalServerError, KindOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(fmt.Errorf("generate: %w", &googleapi.Error{Code: tt.code, Message: "boom"}))

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.Equal(t, tt.code, pe.StatusCode)
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestClassify_GRPCStatus(t *testing.T) {
	err := Classify(status.Error(codes.ResourceExhausted, "quota"))
	assert.Equal(t, KindRateLimited, KindOf(err))

	err = Classify(status.Error(codes.Unavailable, "down"))
	assert.Equal(t, KindUnavailable, KindOf(err))

	err = Classify(status.Error(codes.PermissionDenied, "no"))
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestClassify_ContextErrorsAreNotTransient(t *testing.T) {
	err := Classify(context.DeadlineExceeded)
	assert.Equal(t, KindOther, KindOf(err))
	assert.False(t, IsTransient(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassify_MessageFallback(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(Classify(errors.New("HTTP 429 Too Many Requests"))))
	assert.Equal(t, KindUnavailable, KindOf(Classify(errors.New("503 Service Unavailable"))))
	assert.Equal(t, KindOther, KindOf(Classify(errors.New("something odd"))))
}

func TestClassify_Idempotent(t *testing.T) {
	original := &ProviderError{Kind: KindRateLimited}
	assert.Same(t, original, Classify(original))
	assert.NoError(t, Classify(nil))
}

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{Kind: KindUnavailable, StatusCode: 503, Message: "overloaded", Cause: errors.New("upstream")}
	assert.Equal(t, "llm provider error (unavailable) [HTTP 503]: overloaded: upstream", err.Error())
}

func TestValidateMessage(t *testing.T) {
	assert.Error(t, validateMessage(Message{}))
	assert.Error(t, validateMessage(Message{Text: "x", Documents: []Document{{Name: "cv"}}}))
	assert.NoError(t, validateMessage(Message{Text: "x", Documents: []Document{{Name: "cv", MIMEType: "application/pdf"}}}))
}
