package notify

import "testing"

func TestHub_NotifyCoalesces(t *testing.T) {
	var h Hub
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Notify()
	h.Notify()
	h.Notify()

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestHub_CancelClosesAndIsIdempotent(t *testing.T) {
	var h Hub
	ch, cancel := h.Subscribe()
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}
	h.Notify()
}

func TestHub_CloseClosesSubscribers(t *testing.T) {
	var h Hub
	a, cancelA := h.Subscribe()
	b, _ := h.Subscribe()

	h.Close()
	h.Close()

	if _, ok := <-a; ok {
		t.Fatal("a should be closed")
	}
	if _, ok := <-b; ok {
		t.Fatal("b should be closed")
	}
	cancelA()

	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscription after Close should be closed")
	}
}
