package pipeline

import "strings"

// AITool is one installable AI coding assistant, grounded on ai.rs's
// AI_TOOLS table.
type AITool struct {
	Name        string
	Description string
	InstallCmd  string
}

var aiToolCatalog = []AITool{
	{Name: "claude-code", Description: "Anthropic's Claude Code CLI", InstallCmd: "npm install -g @anthropic-ai/claude-code"},
	{Name: "codex", Description: "OpenAI Codex CLI", InstallCmd: "npm install -g @openai/codex"},
	{Name: "opencode", Description: "Open-source AI coding assistant", InstallCmd: "npm i -g opencode-ai"},
}

// AIToolCatalog returns the full set of installable AI tools, for the
// interactive picker behind `spuff up --ai-tools=ask`.
func AIToolCatalog() []AITool {
	return aiToolCatalog
}

// DevtoolsInstallRequest is the body POSTed to the agent's
// /devtools/install endpoint.
type DevtoolsInstallRequest struct {
	Tools []string `json:"tools"`
}

// DevtoolsInstallResponse is a best-effort ack; the agent installs
// asynchronously in the background and its real progress is polled later
// through GET /devtools.
type DevtoolsInstallResponse struct {
	Started bool `json:"started"`
}

// resolveAITools turns an --ai-tools value ("all", "none", or a
// comma-separated tool name list) into concrete tool names, defaulting to
// "all" when mode is empty (matching AiToolsConfig::default() in
// original_source/src/project_config.rs).
func resolveAITools(mode string) []string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", "all":
		names := make([]string, len(aiToolCatalog))
		for i, t := range aiToolCatalog {
			names[i] = t.Name
		}
		return names
	case "none":
		return nil
	default:
		var names []string
		for _, part := range strings.Split(mode, ",") {
			name := strings.TrimSpace(part)
			if name != "" {
				names = append(names, name)
			}
		}
		return names
	}
}
