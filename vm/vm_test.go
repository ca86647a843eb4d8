package vm

import (
	"testing"

	"github.com/hivm-go/hivm/isa"
)

func newTestInstance(t *testing.T, image []byte) *Instance {
	t.Helper()
	i, err := New(image, OpStackSize(64))
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func TestPushPopWidths(t *testing.T) {
	i := newTestInstance(t, nil)
	for _, width := range []int{1, 2, 4, 8} {
		i.Push(0x0102030405060708, width)
		got := i.Pop(width)
		want := uint64(0x0102030405060708) & (1<<(uint(width)*8) - 1)
		if width == 8 {
			want = 0x0102030405060708
		}
		if got != want {
			t.Errorf("width %d: got %x, want %x", width, got, want)
		}
	}
}

func TestPeekDoesNotPop(t *testing.T) {
	i := newTestInstance(t, nil)
	i.Push(42, 4)
	if got := i.Peek(4); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := i.Pop(4); got != 42 {
		t.Fatalf("peek should not consume the value, got %d", got)
	}
}

func TestPushBytesOrderPreserved(t *testing.T) {
	i := newTestInstance(t, nil)
	i.PushBytes([]byte{1, 2, 3})
	got := i.PopBytes(3)
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestStackOverflowPanics(t *testing.T) {
	i := newTestInstance(t, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on stack overflow")
		}
	}()
	for n := 0; n < 100; n++ {
		i.Push(1, 8)
	}
}

func TestStackUnderflowPanics(t *testing.T) {
	i := newTestInstance(t, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on stack underflow")
		}
	}()
	i.Pop(8)
}

func TestMallocReallocFree(t *testing.T) {
	i := newTestInstance(t, make([]byte, 16))
	a := i.malloc(8)
	if a != 16 {
		t.Fatalf("first allocation should start right after the image, got %d", a)
	}
	b := i.malloc(4)
	if b != 24 {
		t.Fatalf("second allocation should not overlap the first, got %d", b)
	}
	grown := i.realloc(a, 64)
	if grown == a {
		t.Fatal("growing past the original size should relocate the block")
	}
	if len(i.mem) < grown+64 {
		t.Fatalf("arena did not grow to fit the relocated block: %d", len(i.mem))
	}
	shrunk := i.realloc(b, 2)
	if shrunk != b {
		t.Fatal("shrinking should keep the same base address")
	}
	i.free(grown)
	if _, ok := i.allocSizes[grown]; ok {
		t.Fatal("free should drop the allocation's bookkeeping entry")
	}
}

func TestReadErrorDefaultsToNoError(t *testing.T) {
	i := newTestInstance(t, nil)
	if i.Error() != isa.NoError {
		t.Fatalf("got %v", i.Error())
	}
}
