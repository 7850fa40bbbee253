package bus_test

import (
	"testing"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
)

func TestBus_PublishReachesSubscriber(t *testing.T) {
	b := bus.New()
	ch, release := b.Subscribe()
	defer release()

	b.Publish(bus.Event{Kind: bus.KindProfileUpdated, UserID: "u1"})

	select {
	case ev := <-ch:
		if ev.Kind != bus.KindProfileUpdated || ev.UserID != "u1" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.At.IsZero() {
			t.Error("expected publish to stamp the event time")
		}
	case <-time.After(time.Second):
		t.Fatal("expected event to be delivered")
	}
}

func TestBus_ReleaseStopsDelivery(t *testing.T) {
	b := bus.New()
	ch, release := b.Subscribe()

	release()
	if b.Subscribers() != 0 {
		t.Fatal("expected zero subscribers after release")
	}

	// Channel is closed; receive must not block.
	if _, open := <-ch; open {
		t.Fatal("expected channel to be closed after release")
	}

	// Publishing to a bus with no subscribers must not panic.
	b.Publish(bus.Event{Kind: bus.KindSessionEnded, UserID: "u1"})
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := bus.New()
	_, release := b.Subscribe()
	defer release()

	done := make(chan struct{})
	go func() {
		// More events than the subscriber buffer holds.
		for i := 0; i < 100; i++ {
			b.Publish(bus.Event{Kind: bus.KindPreferencesUpdated, UserID: "u1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_FanOut(t *testing.T) {
	b := bus.New()
	ch1, release1 := b.Subscribe()
	defer release1()
	ch2, release2 := b.Subscribe()
	defer release2()

	b.Publish(bus.Event{Kind: bus.KindSessionEnded, UserID: "u1"})

	for i, ch := range []<-chan bus.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != bus.KindSessionEnded {
				t.Errorf("subscriber %d: unexpected kind %s", i, ev.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: event not delivered", i)
		}
	}
}
