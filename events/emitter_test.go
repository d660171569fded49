package events

import "testing"

func TestEmitterDeliversToSubscriber(t *testing.T) {
	e := NewEmitter()
	var got Event
	e.Subscribe(EventBlockCommit, func(ev Event) { got = ev })

	e.Emit(Event{Type: EventBlockCommit, BlockHeight: 5})
	if got.BlockHeight != 5 {
		t.Fatalf("got block height %d want 5", got.BlockHeight)
	}
}

func TestEmitterOnlyDeliversToMatchingType(t *testing.T) {
	e := NewEmitter()
	called := false
	e.Subscribe(EventEraSwitch, func(Event) { called = true })

	e.Emit(Event{Type: EventBlockCommit})
	if called {
		t.Fatal("handler subscribed to a different event type should not fire")
	}
}

func TestEmitterSupportsMultipleSubscribers(t *testing.T) {
	e := NewEmitter()
	var calls int
	e.Subscribe(EventBlockCommit, func(Event) { calls++ })
	e.Subscribe(EventBlockCommit, func(Event) { calls++ })

	e.Emit(Event{Type: EventBlockCommit})
	if calls != 2 {
		t.Fatalf("got %d calls want 2", calls)
	}
}

func TestEmitterRecoversFromHandlerPanic(t *testing.T) {
	e := NewEmitter()
	secondCalled := false
	e.Subscribe(EventBlockCommit, func(Event) { panic("boom") })
	e.Subscribe(EventBlockCommit, func(Event) { secondCalled = true })

	e.Emit(Event{Type: EventBlockCommit}) // must not panic the test
	if !secondCalled {
		t.Fatal("expected subsequent handler to still run after a panicking one")
	}
}
