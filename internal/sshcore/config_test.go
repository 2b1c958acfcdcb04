package sshcore

import (
	"net"
	"testing"
)

func TestNewConfigDefaultsToAcceptAny(t *testing.T) {
	cfg := NewConfig("root", "/path/to/key")
	if cfg.User != "root" {
		t.Errorf("User = %q, want root", cfg.User)
	}
	if cfg.HostKeyPolicy != HostKeyAcceptAny {
		t.Errorf("HostKeyPolicy = %v, want HostKeyAcceptAny", cfg.HostKeyPolicy)
	}
}

func TestPortForwardStopClosesStopChannel(t *testing.T) {
	// PortForward.Stop must be safe to call without a live SSH client
	// attached, since Stop only tears down the local listener/goroutine.
	pf := &PortForward{stop: make(chan struct{})}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	pf.listener = listener
	pf.Stop()
	select {
	case <-pf.stop:
	default:
		t.Error("Stop() did not close the stop channel")
	}
}
