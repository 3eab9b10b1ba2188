package affinity

import (
	"context"
	"errors"
	"testing"
)

func TestFlow_ProtocolSequence(t *testing.T) {
	c := NewCoordinator()
	defer c.Close()

	f := NewFlow(c)
	if got := f.State(); got != StateUIAffine {
		t.Fatalf("initial state = %v, want %v", got, StateUIAffine)
	}

	var sawState State
	err := f.OnUI(context.Background(), func(UIToken) error {
		sawState = f.State()
		return nil
	})
	if err != nil {
		t.Fatalf("OnUI error: %v", err)
	}
	if sawState != StateUIAffine {
		t.Errorf("state inside UI hop = %v, want %v", sawState, StateUIAffine)
	}

	if err := f.ToBackground(context.Background()); err != nil {
		t.Fatalf("ToBackground error: %v", err)
	}
	if got := f.State(); got != StateBackground {
		t.Errorf("state after ToBackground = %v, want %v", got, StateBackground)
	}
}

func TestFlow_CancelBeforeSeal(t *testing.T) {
	c := NewCoordinator()
	defer c.Close()

	f := NewFlow(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.OnUI(ctx, func(UIToken) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("OnUI error = %v, want context.Canceled", err)
	}
	if err := f.ToBackground(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ToBackground error = %v, want context.Canceled", err)
	}
	if err := f.Checkpoint(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Checkpoint error = %v, want context.Canceled", err)
	}
}

func TestFlow_SealIgnoresCancellation(t *testing.T) {
	c := NewCoordinator()
	defer c.Close()

	f := NewFlow(c)
	f.Seal()
	if !f.Sealed() {
		t.Fatal("flow should report sealed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Checkpoint(ctx); err != nil {
		t.Errorf("sealed Checkpoint error = %v, want nil", err)
	}

	ran := false
	if err := f.OnUI(ctx, func(UIToken) error { ran = true; return nil }); err != nil {
		t.Errorf("sealed OnUI error = %v, want nil", err)
	}
	if !ran {
		t.Error("sealed UI hop should run despite cancellation")
	}
}

func TestGuard_OneWayLatch(t *testing.T) {
	var g Guard
	ctx, cancel := context.WithCancel(context.Background())

	if err := g.Checkpoint(ctx); err != nil {
		t.Fatalf("armed Checkpoint on live ctx = %v, want nil", err)
	}

	g.Seal()
	cancel()
	for i := 0; i < 3; i++ {
		if err := g.Checkpoint(ctx); err != nil {
			t.Fatalf("sealed Checkpoint %d = %v, want nil", i, err)
		}
	}
}
