// internal/event/bus_test.go
package event

import (
	"context"
	"errors"
	"testing"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversSynchronouslyInOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.Subscribe(TopicAccountCredited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(TopicAccountCredited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		order = append(order, "second")
		return nil
	})

	err := bus.Publish(context.Background(), nil, CreditRecorded{Entry: &domain.Transaction{}})

	require.NoError(t, err)
	// Delivery completed before Publish returned, in subscription order.
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishStopsAtFirstError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("insert failed")
	secondCalled := false

	bus.Subscribe(TopicAccountDebited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		return boom
	})
	bus.Subscribe(TopicAccountDebited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		secondCalled = true
		return nil
	})

	err := bus.Publish(context.Background(), nil, DebitRecorded{Entry: &domain.Transaction{}})

	assert.ErrorIs(t, err, boom)
	assert.False(t, secondCalled)
}

func TestPublishIsScopedToTopic(t *testing.T) {
	bus := NewBus()
	var credits, debits int

	bus.Subscribe(TopicAccountCredited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		credits++
		return nil
	})
	bus.Subscribe(TopicAccountDebited, func(ctx context.Context, q repository.DBExecutor, e Event) error {
		debits++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), nil, CreditRecorded{Entry: &domain.Transaction{}}))

	assert.Equal(t, 1, credits)
	assert.Equal(t, 0, debits)
}

func TestPublishWithoutSubscribersIsANoOp(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), nil, CreditRecorded{Entry: &domain.Transaction{}}))
}
