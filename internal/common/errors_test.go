package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrIndexUnavailable))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", ErrIndexUnavailable)))
	assert.True(t, IsTransient(ErrEmbeddingUnavailable))
	assert.True(t, IsTransient(context.DeadlineExceeded))

	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(ErrInsufficientData))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.False(t, IsTransient(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrEmbeddingUnavailable))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save expense", inner)
	assert.Contains(t, err.Error(), "could not save expense")
	assert.ErrorIs(t, err, inner)

	bare := NewUserError("try again", nil)
	assert.Equal(t, "try again", bare.Error())
}
