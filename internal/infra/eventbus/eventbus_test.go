package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe("rpc.call")

	bus.Publish("rpc.call", "payload-1")

	select {
	case evt := <-ch:
		if evt.Topic != "rpc.call" || evt.Payload != "payload-1" {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublish_NoSubscribersDoesNotBlock(t *testing.T) {
	bus := New()
	done := make(chan struct{})
	go func() {
		bus.Publish("nobody-listening", 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestPublish_DropsWhenBufferFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe("busy")

	// Overfill the buffer without consuming; the surplus must be dropped,
	// not block the publisher.
	for i := 0; i < defaultBufferSize+10; i++ {
		bus.Publish("busy", i)
	}

	if len(ch) != defaultBufferSize {
		t.Errorf("expected %d buffered events, got %d", defaultBufferSize, len(ch))
	}
}

func TestSubscribe_MultipleSubscribersEachReceive(t *testing.T) {
	bus := New()
	a := bus.Subscribe("topic")
	b := bus.Subscribe("topic")

	bus.Publish("topic", "x")

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case evt := <-ch:
			if evt.Payload != "x" {
				t.Errorf("subscriber %s: unexpected payload %v", name, evt.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: no event", name)
		}
	}
}
