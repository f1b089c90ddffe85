package sse

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndEmit(t *testing.T) {
	emitter := NewSalesEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.Subscribe(ctx, "event-1")
	require.Equal(t, 1, emitter.ClientCount("event-1"))

	sale := models.Sale{EventID: "event-1", PurchaseID: "p-1", UserID: "user-1", Quantity: 2, Total: 210}
	emitter.EmitSale(sale)

	select {
	case got := <-ch:
		assert.Equal(t, sale.PurchaseID, got.PurchaseID)
		assert.Equal(t, 2, got.Quantity)
	case <-time.After(time.Second):
		t.Fatal("expected a sale on the channel")
	}
}

func TestEmitSale_OnlyMatchingEvent(t *testing.T) {
	emitter := NewSalesEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.Subscribe(ctx, "event-1")
	emitter.EmitSale(models.Sale{EventID: "event-2", PurchaseID: "p-1"})

	select {
	case sale := <-ch:
		t.Fatalf("subscriber of event-1 received sale for %s", sale.EventID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_ContextCancelRemovesClient(t *testing.T) {
	emitter := NewSalesEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := emitter.Subscribe(ctx, "event-1")
	cancel()

	assert.Eventually(t, func() bool {
		return emitter.ClientCount("event-1") == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open, "channel is closed on unsubscribe")
}

func TestEmitSale_SlowSubscriberDoesNotBlock(t *testing.T) {
	emitter := NewSalesEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.Subscribe(ctx, "event-1") // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			emitter.EmitSale(models.Sale{EventID: "event-1", PurchaseID: "p"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
}
