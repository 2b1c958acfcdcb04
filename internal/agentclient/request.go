package agentclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"spuff/internal/sshcore"
)

// agentBaseURL is the agent's loopback-only listen address on every
// instance; it is never reachable except through an SSH session to the
// box itself.
const agentBaseURL = "http://127.0.0.1:7575"

// tokenHeaderArg renders the -H curl argument carrying AppConfig.agent_token
// as X-Spuff-Token, or "" when no token is configured.
func tokenHeaderArg(token string) string {
	if token == "" {
		return ""
	}
	escaped := strings.ReplaceAll(token, "'", `'\''`)
	return fmt.Sprintf(" -H 'X-Spuff-Token: %s'", escaped)
}

// Request issues a GET to the agent's HTTP API over an already-connected
// SSH session and decodes the JSON response into out. token is
// AppConfig.AgentToken; when set it is sent as the X-Spuff-Token header.
func Request(client *sshcore.Client, endpoint, token string, out any) error {
	command := fmt.Sprintf("curl -s%s %s%s", tokenHeaderArg(token), agentBaseURL, endpoint)
	return run(client, command, out)
}

// RequestPost issues a POST with a JSON body to the agent's HTTP API over
// an already-connected SSH session and decodes the JSON response into out.
func RequestPost(client *sshcore.Client, endpoint, token string, body any, out any) error {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	escaped := strings.ReplaceAll(string(bodyJSON), "'", `'\''`)
	command := fmt.Sprintf(
		"curl -s -X POST%s -H 'Content-Type: application/json' -d '%s' %s%s",
		tokenHeaderArg(token), escaped, agentBaseURL, endpoint,
	)
	return run(client, command, out)
}

func run(client *sshcore.Client, command string, out any) error {
	output, err := client.Exec(command)
	if err != nil {
		return fmt.Errorf("failed to reach spuff-agent: %w", err)
	}

	jsonStr := ExtractJSON(output.Stdout)
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to parse agent response: %w (response: %s)", err, output.Stdout)
	}
	return nil
}
