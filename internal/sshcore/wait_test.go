package sshcore

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestWaitForPortTimeout(t *testing.T) {
	err := WaitForPort("127.0.0.1", 59999, 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error connecting to a closed port")
	}
	if !strings.Contains(err.Error(), "timeout waiting for SSH") {
		t.Errorf("error = %q, want timeout message", err.Error())
	}
}

func TestWaitForPortSuccess(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	if err := WaitForPort("127.0.0.1", port, 5*time.Second); err != nil {
		t.Errorf("WaitForPort failed against a listening port: %v", err)
	}
}
