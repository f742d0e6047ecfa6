package fbi

import (
	"context"
	"testing"
)

func TestCommandFifoEnqueueDequeueOrder(t *testing.T) {
	f := NewCommandFifo()
	ctx := context.Background()

	if err := f.Enqueue(ctx, CmdRegWrite, 0x100, 1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := f.Enqueue(ctx, CmdFBWriteWord, 0x200, 2); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := f.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	e1, err := f.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if e1.Kind != CmdRegWrite || e1.Addr != 0x100 || e1.Val != 1 {
		t.Fatalf("first entry = %+v, want RegWrite/0x100/1", e1)
	}

	e2, err := f.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if e2.Kind != CmdFBWriteWord || e2.Addr != 0x200 || e2.Val != 2 {
		t.Fatalf("second entry = %+v, want FBWriteWord/0x200/2", e2)
	}

	if got := f.Len(); got != 0 {
		t.Fatalf("Len() after drain = %d, want 0", got)
	}
}

func TestCommandFifoDequeueBlocksUntilCancelled(t *testing.T) {
	f := NewCommandFifo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Dequeue(ctx); err == nil {
		t.Fatal("Dequeue on an empty FIFO with a cancelled context should return an error")
	}
}
