package sshcore

import (
	"fmt"
	"io"
	"net"
)

// PortForward is a running local-to-remote TCP forward. Grounded on
// original_source/src/ssh/tunnel.rs's PortForward/create_local_forward.
type PortForward struct {
	listener net.Listener
	stop     chan struct{}
}

// Stop closes the local listener so no new connections are accepted.
// Connections already being forwarded are not closed; each runs until one
// side ends it.
func (p *PortForward) Stop() {
	select {
	case <-p.stop:
		// already stopped
	default:
		close(p.stop)
	}
	_ = p.listener.Close()
}

// ForwardLocalPort binds localPort on 127.0.0.1 and forwards every
// connection accepted there to remotePort on the instance, over a
// direct-tcpip SSH channel.
func (c *Client) ForwardLocalPort(localPort, remotePort int) (*PortForward, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", localPort))
	if err != nil {
		return nil, fmt.Errorf("failed to bind local port %d: %w", localPort, err)
	}

	pf := &PortForward{listener: listener, stop: make(chan struct{})}

	go func() {
		for {
			local, err := listener.Accept()
			if err != nil {
				return
			}
			go pf.forwardOne(c, local, remotePort)
		}
	}()

	return pf, nil
}

func (p *PortForward) forwardOne(c *Client, local net.Conn, remotePort int) {
	defer local.Close()

	remote, err := c.conn.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", remotePort))
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() { _, _ = io.Copy(remote, local); done <- struct{}{} }()
	go func() { _, _ = io.Copy(local, remote); done <- struct{}{} }()
	<-done
}

// ForwardPorts forwards each port in ports to the same port number on the
// instance, used for `spuff tunnel`'s multi-port mode.
func (c *Client) ForwardPorts(ports []int) ([]*PortForward, error) {
	forwards := make([]*PortForward, 0, len(ports))
	for _, port := range ports {
		pf, err := c.ForwardLocalPort(port, port)
		if err != nil {
			for _, existing := range forwards {
				existing.Stop()
			}
			return nil, err
		}
		forwards = append(forwards, pf)
	}
	return forwards, nil
}
