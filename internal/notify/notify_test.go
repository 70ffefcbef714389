package notify_test

import (
	"context"
	"testing"
	"time"

	"multireg/internal/notify"
)

func TestSignalWakesWaiters(t *testing.T) {
	s := notify.NewSignal()
	ch := s.C()

	select {
	case <-ch:
		t.Fatal("channel should not be closed before Notify")
	default:
	}

	s.Notify()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Notify did not close the channel")
	}

	// Fresh channel after each wakeup.
	select {
	case <-s.C():
		t.Fatal("new channel should not be closed yet")
	default:
	}
}

func TestBrokerDeliversInOrder(t *testing.T) {
	b := notify.NewBroker[int](8)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := b.Subscribe(ctx)

	for i := 1; i <= 5; i++ {
		b.Publish(i)
	}

	for want := 1; want <= 5; want++ {
		if got := <-sub; got != want {
			t.Fatalf("received %d, want %d", got, want)
		}
	}
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	b := notify.NewBroker[string](4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1 := b.Subscribe(ctx)
	sub2 := b.Subscribe(ctx)
	if b.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount() = %d, want 2", b.SubscriberCount())
	}

	b.Publish("hello")
	if got := <-sub1; got != "hello" {
		t.Errorf("sub1 received %q", got)
	}
	if got := <-sub2; got != "hello" {
		t.Errorf("sub2 received %q", got)
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := notify.NewBroker[int](2)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := b.Subscribe(ctx)

	// Nobody drains: the third publish overflows the buffer.
	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
	if got := <-sub; got != 1 {
		t.Errorf("first buffered value = %d, want 1", got)
	}
}

func TestBrokerCloseClosesSubscribers(t *testing.T) {
	b := notify.NewBroker[int](4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := b.Subscribe(ctx)

	b.Close()

	select {
	case _, ok := <-sub:
		if ok {
			t.Fatal("expected closed channel, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed on broker Close")
	}

	// Publishing after Close is a harmless no-op.
	b.Publish(42)

	// Subscribing after Close yields an already closed channel.
	if _, ok := <-b.Subscribe(ctx); ok {
		t.Fatal("subscription on closed broker should be closed")
	}
}

func TestBrokerContextCancelEndsSubscription(t *testing.T) {
	b := notify.NewBroker[int](4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription not closed after context cancel")
		}
	}
}
