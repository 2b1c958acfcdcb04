package sshcore

import (
	"fmt"
	"os"
	"strings"
)

// UploadFile writes localPath's contents to remotePath on the instance.
// Grounded on original_source/src/ssh/sftp.rs's SftpClient::upload, but
// implemented over the same exec channel as everything else in this
// package rather than a separate SFTP subsystem channel: none of the
// example repos in the pack pull in an SFTP client library, and spuff's
// only file-transfer need (seeding dotfiles, writing small config files)
// is comfortably served by a single `cat > file` exec with the content
// piped over stdin.
func (c *Client) UploadFile(localPath, remotePath string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read local file %s: %w", localPath, err)
	}
	return c.WriteRemoteFile(remotePath, content)
}

// WriteRemoteFile writes content to remotePath by running `cat > '<path>'`
// over exec (the path single-quote escaped) and piping content to its
// stdin, avoiding any intermediate temp file on either side.
func (c *Client) WriteRemoteFile(remotePath string, content []byte) error {
	session, err := c.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer session.Close()

	escaped := strings.ReplaceAll(remotePath, "'", `'\''`)
	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}

	if err := session.Start(fmt.Sprintf("cat > '%s'", escaped)); err != nil {
		return fmt.Errorf("failed to start remote write: %w", err)
	}
	if _, err := stdin.Write(content); err != nil {
		return fmt.Errorf("failed to write to remote file: %w", err)
	}
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("failed to close remote file: %w", err)
	}
	if err := session.Wait(); err != nil {
		return fmt.Errorf("remote write failed: %w", err)
	}
	return nil
}
