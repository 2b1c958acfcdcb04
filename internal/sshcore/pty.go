package sshcore

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

// Shell starts a full interactive shell session with a PTY, putting the
// local terminal into raw mode for the duration. Grounded on
// original_source/src/ssh/pty.rs's interactive_shell.
func (c *Client) Shell() error {
	_, err := c.runInteractive("", true)
	return err
}

// ExecInteractive runs command with a PTY attached (for remote programs
// that need a terminal, e.g. a shell alias or an editor), returning its
// exit code. Grounded on original_source/src/ssh/pty.rs's exec_interactive.
func (c *Client) ExecInteractive(command string) (int, error) {
	return c.runInteractive(command, false)
}

func (c *Client) runInteractive(command string, shell bool) (int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return 0, fmt.Errorf("failed to open channel: %w", err)
	}
	defer session.Close()

	width, height := terminalSize()
	if err := session.RequestPty("xterm-256color", height, width, ssh.TerminalModes{}); err != nil {
		return 0, fmt.Errorf("failed to request PTY: %w", err)
	}

	session.Stdin = os.Stdin
	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	restore, rawErr := setRawMode()
	if rawErr == nil {
		defer restore()
	}

	if shell {
		if err := session.Shell(); err != nil {
			return 0, fmt.Errorf("failed to request shell: %w", err)
		}
		waitErr := session.Wait()
		return exitCodeOf(waitErr), exitErrToErr(waitErr)
	}

	if err := session.Start(command); err != nil {
		return 0, fmt.Errorf("failed to execute command: %w", err)
	}
	waitErr := session.Wait()
	return exitCodeOf(waitErr), exitErrToErr(waitErr)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return exitErr.ExitStatus()
	}
	return -1
}

// exitErrToErr suppresses a plain nonzero-exit error (the exit code itself
// already communicates that), surfacing only transport-level failures.
func exitErrToErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ssh.ExitError); ok {
		return nil
	}
	return err
}

func terminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// setRawMode puts stdin into raw mode and returns a restore function,
// mirroring the Rust original's RawModeGuard RAII pattern with an explicit
// deferred call instead of a Drop impl.
func setRawMode() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, fmt.Errorf("stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
