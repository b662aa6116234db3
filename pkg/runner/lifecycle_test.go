package runner

import (
	"context"
	"testing"
	"time"
)

type recordingDrainer struct {
	drained bool
	delay   time.Duration
}

func (d *recordingDrainer) Drain() error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.drained = true
	return nil
}

func TestLifecycleRunAndStop(t *testing.T) {
	d := &recordingDrainer{}
	started := false
	stopped := false
	r := NewLifecycleRunner(d, Hooks{
		OnStart: func() { started = true },
		OnStop:  func() { stopped = true },
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.State() != StateRunning {
		if time.Now().After(deadline) {
			t.Fatalf("runner never reached running, state=%s", r.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started || !stopped || !d.drained {
		t.Fatalf("hooks not fired: started=%v stopped=%v drained=%v", started, stopped, d.drained)
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %s", r.State())
	}
}

func TestLifecycleDrainTimeout(t *testing.T) {
	d := &recordingDrainer{delay: 200 * time.Millisecond}
	r := NewLifecycleRunner(d, Hooks{}, 20*time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = r.Stop()
	}()
	err := r.Run(context.Background())
	if err == nil || err.Error() != "drain timeout" {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestLifecycleRejectsSecondRun(t *testing.T) {
	r := NewLifecycleRunner(nil, Hooks{}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected invalid state transition")
	}
}
