package arena

import (
	"testing"
	"unsafe"
)

func TestAllocator_New(t *testing.T) {
	t.Run("aligned start", func(t *testing.T) {
		a := New(make([]byte, 1024))

		b, err := a.Bytes(0, 16)
		if err != nil {
			t.Fatalf("Bytes failed: %v", err)
		}
		addr := uintptr(unsafe.Pointer(&b[0]))
		if addr%BufferAlignment != 0 {
			t.Errorf("base address %x not aligned to %d", addr, BufferAlignment)
		}
	})

	t.Run("empty buffer", func(t *testing.T) {
		a := New(nil)
		if a.Capacity() != 0 {
			t.Errorf("expected zero capacity, got %d", a.Capacity())
		}
		if _, err := a.AllocateFromTail(1, 0); err == nil {
			t.Error("expected error allocating from empty arena")
		}
	})

	t.Run("zero usage at start", func(t *testing.T) {
		a := New(make([]byte, 1024))
		if a.HeadUsedBytes() != 0 || a.TailUsedBytes() != 0 || a.TempUsedBytes() != 0 {
			t.Errorf("expected zero usage, got %v", a.Stats())
		}
	})
}

func TestAllocator_Tail(t *testing.T) {
	t.Run("alignment", func(t *testing.T) {
		a := New(make([]byte, 1024))

		for _, size := range []int{1, 3, 5, 7, 15, 17, 31} {
			off, err := a.AllocateFromTail(size, 0)
			if err != nil {
				t.Fatalf("tail allocation of %d failed: %v", size, err)
			}
			if off%BufferAlignment != 0 {
				t.Errorf("size=%d offset=%d not aligned", size, off)
			}
		}
	})

	t.Run("accumulates", func(t *testing.T) {
		a := New(make([]byte, 1024))

		if _, err := a.AllocateFromTail(100, 0); err != nil {
			t.Fatal(err)
		}
		first := a.TailUsedBytes()
		if _, err := a.AllocateFromTail(100, 0); err != nil {
			t.Fatal(err)
		}
		if a.TailUsedBytes() <= first {
			t.Errorf("tail usage did not grow: %d -> %d", first, a.TailUsedBytes())
		}
	})

	t.Run("exhaustion leaves state unchanged", func(t *testing.T) {
		a := New(make([]byte, 128))

		if _, err := a.AllocateFromTail(64, 0); err != nil {
			t.Fatal(err)
		}
		before := a.Stats()
		if _, err := a.AllocateFromTail(1024, 0); err != ErrArenaExhausted {
			t.Fatalf("expected ErrArenaExhausted, got %v", err)
		}
		if a.Stats() != before {
			t.Errorf("failed allocation mutated state: %v -> %v", before, a.Stats())
		}
	})
}

func TestAllocator_HeadTemp(t *testing.T) {
	t.Run("reset reclaims", func(t *testing.T) {
		a := New(make([]byte, 1024))

		if _, err := a.AllocateFromHead(200, 0); err != nil {
			t.Fatal(err)
		}
		if a.TempUsedBytes() < 200 {
			t.Errorf("expected temp usage >= 200, got %d", a.TempUsedBytes())
		}

		a.ResetTemp()
		if a.TempUsedBytes() != 0 {
			t.Errorf("expected temp usage 0 after reset, got %d", a.TempUsedBytes())
		}
		if a.HeadUsedBytes() != 0 {
			t.Errorf("reset must not touch committed head, got %d", a.HeadUsedBytes())
		}
	})

	t.Run("grow head is monotonic", func(t *testing.T) {
		a := New(make([]byte, 1024))

		if err := a.GrowHead(256); err != nil {
			t.Fatal(err)
		}
		if a.HeadUsedBytes() != 256 {
			t.Errorf("expected head 256, got %d", a.HeadUsedBytes())
		}

		// A smaller tenant does not shrink the committed area.
		if err := a.GrowHead(64); err != nil {
			t.Fatal(err)
		}
		if a.HeadUsedBytes() != 256 {
			t.Errorf("expected head to stay 256, got %d", a.HeadUsedBytes())
		}

		if err := a.GrowHead(300); err != nil {
			t.Fatal(err)
		}
		if a.HeadUsedBytes() != alignUp(300, BufferAlignment) {
			t.Errorf("expected head %d, got %d", alignUp(300, BufferAlignment), a.HeadUsedBytes())
		}
	})

	t.Run("committed head survives reset", func(t *testing.T) {
		a := New(make([]byte, 1024))

		if err := a.GrowHead(128); err != nil {
			t.Fatal(err)
		}
		if _, err := a.AllocateFromHead(64, 0); err != nil {
			t.Fatal(err)
		}
		a.ResetTemp()
		if a.HeadUsedBytes() != 128 {
			t.Errorf("expected committed head 128, got %d", a.HeadUsedBytes())
		}
	})

	t.Run("head tail collision", func(t *testing.T) {
		a := New(make([]byte, 256))

		if _, err := a.AllocateFromTail(200, 0); err != nil {
			t.Fatal(err)
		}
		if _, err := a.AllocateFromHead(200, 0); err != ErrArenaExhausted {
			t.Fatalf("expected ErrArenaExhausted, got %v", err)
		}
		if err := a.GrowHead(201); err != ErrArenaExhausted {
			t.Fatalf("expected ErrArenaExhausted from GrowHead, got %v", err)
		}
	})
}

func TestAllocator_Bytes(t *testing.T) {
	a := New(make([]byte, 256))

	off, err := a.AllocateFromTail(32, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := a.Bytes(off, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 32 {
		t.Errorf("expected view of 32 bytes, got %d", len(b))
	}
	for i := range b {
		b[i] = 0xAB
	}

	// Same region again observes the writes.
	b2, err := a.Bytes(off, 32)
	if err != nil {
		t.Fatal(err)
	}
	if b2[0] != 0xAB || b2[31] != 0xAB {
		t.Error("views over the same region must alias")
	}

	if _, err := a.Bytes(-1, 8); err == nil {
		t.Error("expected error for negative offset")
	}
	if _, err := a.Bytes(250, 16); err == nil {
		t.Error("expected error for out-of-bounds region")
	}
}

func TestAllocator_UsedBytes(t *testing.T) {
	a := New(make([]byte, 1024))

	if err := a.GrowHead(128); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AllocateFromTail(64, 0); err != nil {
		t.Fatal(err)
	}

	want := a.HeadUsedBytes() + a.TailUsedBytes()
	if a.UsedBytes() != want {
		t.Errorf("UsedBytes=%d, want head+tail=%d", a.UsedBytes(), want)
	}
}
