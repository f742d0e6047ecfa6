package fbi

import (
	"context"
	"testing"
)

func TestParameterRingPushPopSingleWorker(t *testing.T) {
	r := NewParameterRing()
	ctx := context.Background()

	want := &TriangleParams{X0: 42}
	if err := r.Push(ctx, want); err != nil {
		t.Fatalf("Push: %v", err)
	}

	got, idx, ok := r.Pop(0)
	if !ok {
		t.Fatal("Pop reported nothing available after Push")
	}
	if got != want {
		t.Fatalf("Pop returned %+v, want the pushed pointer", got)
	}
	r.Advance(0, idx, 1)

	if _, _, ok := r.Pop(0); ok {
		t.Fatal("Pop should report nothing available once drained")
	}
}

func TestParameterRingTwoWorkersShareEachSlot(t *testing.T) {
	r := NewParameterRing()
	ctx := context.Background()

	p := &TriangleParams{X0: 1}
	if err := r.Push(ctx, p); err != nil {
		t.Fatalf("Push: %v", err)
	}

	got0, idx0, ok0 := r.Pop(0)
	got1, idx1, ok1 := r.Pop(1)
	if !ok0 || !ok1 || got0 != p || got1 != p {
		t.Fatalf("both parities should see the same triangle: ok0=%v ok1=%v", ok0, ok1)
	}

	r.Advance(0, idx0, 2)
	if _, _, ok := r.Pop(0); ok {
		t.Fatal("parity 0 should have nothing left after advancing past the only slot")
	}

	r.Advance(1, idx1, 2)

	// Ring must still accept a fresh push without blocking once both
	// parities have advanced past the only slot.
	if err := r.Push(ctx, &TriangleParams{X0: 2}); err != nil {
		t.Fatalf("Push after full drain should not block: %v", err)
	}
}
