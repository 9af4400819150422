package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWithSignals_CancelledBySignal(t *testing.T) {
	ctx, cancel := withSignals(context.Background(), syscall.SIGUSR1)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after signal")
	}
}

func TestWithSignals_CancelFunc(t *testing.T) {
	ctx, cancel := WithSignals(context.Background())
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by cancel func")
	}
}
