package sshcore

import (
	"bytes"
	"fmt"
	"strings"
)

// CommandOutput is the captured result of a non-interactive remote command.
// Grounded on original_source/src/ssh/exec.rs.
type CommandOutput struct {
	Stdout  string
	Stderr  string
	Success bool
}

// Exec runs command on the remote host through a login-shell-free bash
// invocation (bash --norc --noprofile -c '...'), capturing stdout/stderr
// separately and reporting success as exit code == 0.
func (c *Client) Exec(command string) (CommandOutput, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return CommandOutput{}, fmt.Errorf("failed to open channel: %w", err)
	}
	defer session.Close()

	wrapped := fmt.Sprintf("bash --norc --noprofile -c '%s'", strings.ReplaceAll(command, "'", `'\''`))

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(wrapped)
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(interface{ ExitStatus() int }); ok {
			exitCode = exitErr.ExitStatus()
		} else {
			return CommandOutput{}, fmt.Errorf("failed to execute command: %w", runErr)
		}
	}

	out := CommandOutput{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Success: exitCode == 0,
	}

	if exitCode != 0 && (strings.Contains(out.Stderr, "Permission denied") || strings.Contains(out.Stderr, "passphrase")) {
		return CommandOutput{}, fmt.Errorf("SSH key requires passphrase. Run 'ssh-add' first to add your key to the agent")
	}

	return out, nil
}
