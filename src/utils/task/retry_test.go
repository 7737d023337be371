package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0

	err := NewRetry().
		WithContext(context.Background()).
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	permanent := errors.New("not recoverable")

	err := NewRetry().
		WithContext(context.Background()).
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return permanent
		})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryGivesUpAfterMaxElapsedTime(t *testing.T) {
	err := NewRetry().
		WithContext(context.Background()).
		WithMaxElapsedTime(10 * time.Millisecond).
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			return errors.New("still failing")
		})

	assert.Error(t, err)
}
