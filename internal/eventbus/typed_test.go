package eventbus

import "testing"

func TestTypedBusDelivers(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	if v := <-ch; v != "hello" {
		t.Fatalf("expected hello got %q", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.SubscribeBuffered(1)
	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)
	if v := <-ch; v != 1 {
		t.Fatalf("expected first event got %d", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected overflow to be dropped, got %d", v)
	default:
	}
	bus.Close()
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	for i, ch := range []<-chan int{ch1, ch2} {
		if _, ok := <-ch; ok {
			t.Fatalf("subscriber %d still open after Close", i)
		}
	}
	// Publishing and closing again are no-ops now.
	bus.Publish(9)
	bus.Close()

	if _, ok := <-bus.Subscribe(); ok {
		t.Fatal("subscribing to a closed bus should hand back a closed channel")
	}
}

func TestTypedBusUnsubscribeIsSafe(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch) // second detach of the same channel is ignored

	ch2 := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch2)
}
