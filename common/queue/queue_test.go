package queue

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(logger.Discard())
	defer q.Close()

	received := make(chan string, 1)
	require.NoError(t, q.Subscribe(ctx, "tag.events", func(ctx context.Context, key string, value []byte) error {
		received <- key + ":" + string(value)
		return nil
	}))

	require.NoError(t, q.Publish(ctx, "tag.events", "tag-1", []byte("linked")))

	select {
	case got := <-received:
		assert.Equal(t, "tag-1:linked", got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_PublishAfterClose(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	require.NoError(t, q.Publish(context.Background(), "t", "k", []byte("v")))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	err := q.Publish(context.Background(), "t", "k", []byte("v"))
	assert.ErrorIs(t, err, ErrClosed)
}
