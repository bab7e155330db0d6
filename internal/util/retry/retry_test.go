package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	attempts := 0
	wantErr := errors.New("persistent error")

	err := Do(context.Background(), func() error {
		attempts++
		return wantErr
	}, WithMaxAttempts(4), WithInitialDelay(time.Millisecond))

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 4, attempts)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	wantErr := errors.New("bad request")

	err := Do(context.Background(), func() error {
		attempts++
		return Permanent(wantErr)
	}, WithInitialDelay(time.Millisecond))

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error {
		return errors.New("keep trying")
	}, WithInitialDelay(time.Minute))

	require.ErrorIs(t, err, context.Canceled)
}

func TestPermanent_NilStaysNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
}
