package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	var order []int
	for i := range 5 {
		require.True(t, loop.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, loop.Do(ctx, func() error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	<-loop.Done()
}

func TestLoopDoReturnsTaskError(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	boom := errors.New("boom")
	assert.ErrorIs(t, loop.Do(ctx, func() error { return boom }), boom)

	cancel()
	<-loop.Done()
}

func TestLoopRejectsPostAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = loop.Run(ctx)

	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Do(context.Background(), func() error { return nil }), ErrLoopStopped)
}
