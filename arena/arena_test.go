package arena

import (
	"testing"

	"github.com/gostdlib/base/context"
)

func TestAllocBumpsAndRespectsCommitLimit(t *testing.T) {
	a := New(0, 4096, 2*4096)

	b1, err := a.Alloc(context.Background(), Pref{}, 4096)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b2, err := a.Alloc(context.Background(), Pref{}, 4096)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if b2 != b1+4096 {
		t.Fatalf("second Alloc base = %#x, want %#x", b2, b1+4096)
	}

	if _, err := a.Alloc(context.Background(), Pref{}, 4096); err == nil {
		t.Fatal("expected commit-limit error on a third allocation")
	}

	a.Free(b1, 4096)
	if _, err := a.Alloc(context.Background(), Pref{}, 4096); err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
}

func TestEnterIsReentrant(t *testing.T) {
	a := New(0, 4096, 0)

	ctx, leave1 := a.Enter(context.Background())
	defer leave1()

	// A second Enter carrying the same lock-owning context must not
	// deadlock against the lock the first Enter already holds.
	_, leave2 := a.Enter(ctx)
	leave2()
}

func TestEnterBlocksAcrossUnrelatedContexts(t *testing.T) {
	a := New(0, 4096, 0)

	_, leave1 := a.Enter(context.Background())
	acquired := make(chan struct{})
	go func() {
		_, leave2 := a.Enter(context.Background())
		close(acquired)
		leave2()
	}()

	select {
	case <-acquired:
		t.Fatal("expected a fresh context's Enter to block while the lock is held")
	default:
	}
	leave1()
	<-acquired
}

func TestControlAllocRejectsOversizeRequest(t *testing.T) {
	a := New(0, 4096, 0)
	if _, err := a.ControlAlloc(context.Background(), 4096); err == nil {
		t.Fatal("expected an error requesting more than the control block capacity")
	}
}

func TestControlAllocFreeRoundTrip(t *testing.T) {
	a := New(0, 4096, 0)
	ctx := context.Background()

	p, err := a.ControlAlloc(ctx, 16)
	if err != nil {
		t.Fatalf("ControlAlloc: %v", err)
	}
	a.ControlFree(ctx, p)
}

func TestGreyRingsAreDistinctPerRank(t *testing.T) {
	a := New(0, 4096, 0)
	if a.GreyRing(0) == a.GreyRing(1) {
		t.Fatal("expected distinct grey-ring sentinels per rank")
	}
}
