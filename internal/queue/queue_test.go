package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracy-project/tracy/internal/queue"
)

func TestOffer_FIFOOrder(t *testing.T) {
	q := queue.New(10, 1<<10)
	q.Offer(queue.Record{Name: "a", Payload: []byte("1")})
	q.Offer(queue.Record{Name: "a", Payload: []byte("2")})
	q.Offer(queue.Record{Name: "a", Payload: []byte("3")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	batch := q.DrainBatch(ctx, 0)

	require.Len(t, batch, 3)
	assert.Equal(t, "1", string(batch[0].Payload))
	assert.Equal(t, "2", string(batch[1].Payload))
	assert.Equal(t, "3", string(batch[2].Payload))
}

func TestOffer_RejectsOnceRecordBoundHit(t *testing.T) {
	q := queue.New(2, 1<<10)
	assert.True(t, q.Offer(queue.Record{Payload: []byte("1")}))
	assert.True(t, q.Offer(queue.Record{Payload: []byte("2")}))
	assert.False(t, q.Offer(queue.Record{Payload: []byte("3")}))
	assert.Equal(t, int64(1), q.DroppedCount())
}

func TestOffer_RejectsOnceByteBoundHit(t *testing.T) {
	q := queue.New(100, 4)
	assert.True(t, q.Offer(queue.Record{Payload: []byte("ab")}))
	assert.False(t, q.Offer(queue.Record{Payload: []byte("abc")}))
	assert.Equal(t, int64(1), q.DroppedCount())
}

func TestDrainBatch_RespectsMaxRecords(t *testing.T) {
	q := queue.New(10, 1<<10)
	for i := 0; i < 5; i++ {
		q.Offer(queue.Record{Payload: []byte("x")})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first := q.DrainBatch(ctx, 2)
	assert.Len(t, first, 2)

	rest := q.DrainBatch(ctx, 0)
	assert.Len(t, rest, 3)
}

func TestDrainBatch_BlocksUntilOfferOrContextDone(t *testing.T) {
	q := queue.New(10, 1<<10)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	batch := q.DrainBatch(ctx, 0)
	assert.Nil(t, batch)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDrainBatch_WakesOnOffer(t *testing.T) {
	q := queue.New(10, 1<<10)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Offer(queue.Record{Payload: []byte("woke")})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	batch := q.DrainBatch(ctx, 0)
	require.Len(t, batch, 1)
	assert.Equal(t, "woke", string(batch[0].Payload))
}

func TestDiscard_ClearsQueueWithoutCountingAsDropped(t *testing.T) {
	q := queue.New(10, 1<<10)
	q.Offer(queue.Record{Payload: []byte("1")})
	q.Offer(queue.Record{Payload: []byte("2")})

	q.Discard()

	assert.Equal(t, int64(0), q.DroppedCount())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Nil(t, q.DrainBatch(ctx, 0))
}

func TestClose_UnblocksDrainAndRejectsOffer(t *testing.T) {
	q := queue.New(10, 1<<10)

	done := make(chan []queue.Record, 1)
	go func() {
		done <- q.DrainBatch(context.Background(), 0)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case batch := <-done:
		assert.Empty(t, batch)
	case <-time.After(time.Second):
		t.Fatal("DrainBatch did not unblock after Close")
	}

	assert.False(t, q.Offer(queue.Record{Payload: []byte("late")}))
}
