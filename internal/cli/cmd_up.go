package cli

import (
	"context"
	"flag"

	"spuff/internal/cliutil"
	"spuff/internal/pipeline"
	"spuff/internal/provider"
	"spuff/internal/sshcore"
)

// cmdUp runs the provisioning pipeline. Grounded on up.rs's execute()
// CLI-arg surface, minus its dev-mode agent cross-compile path.
func cmdUp(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)

	fs := flag.NewFlagSet("up", flag.ExitOnError)
	size := fs.String("size", "", "instance size override")
	fs.StringVar(size, "s", "", "instance size override (shorthand)")
	snapshot := fs.String("snapshot", "", "boot from this snapshot instead of a fresh image")
	region := fs.String("region", "", "region override")
	fs.StringVar(region, "r", "", "region override (shorthand)")
	noConnect := fs.Bool("no-connect", false, "don't open an interactive shell on success")
	aiTools := fs.String("ai-tools", "", "all|none|ask|<comma-separated tool list>")
	_ = fs.Parse(args)

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	if err := ctx.AppConfig.Validate(); err != nil {
		cliutil.Fatal(err)
	}

	proj, err := currentProjectConfig()
	if err != nil {
		cliutil.Fatal(err)
	}

	resolvedAITools := *aiTools
	if resolvedAITools == "ask" {
		resolvedAITools = askAITools()
	}

	deps := pipeline.ProvisionDeps{
		AppConfig:     ctx.AppConfig,
		ProjectConfig: proj,
		Registry:      ctx.Registry,
		Store:         ctx.Store,
		Volumes:       ctx.Volumes,
		ReadyTimeouts: provider.DefaultTimeouts(),
	}
	opts := pipeline.ProvisionOptions{
		Size:      *size,
		Snapshot:  *snapshot,
		Region:    *region,
		NoConnect: *noConnect,
		AITools:   resolvedAITools,
	}

	name, ip, err := renderProgress(pipeline.Provision(context.Background(), deps, opts))
	if err != nil {
		cliutil.Fatal(err)
	}

	cliutil.PrintResult("Environment ready", map[string]interface{}{
		"name": name,
		"ip":   ip,
	}, jsonOut)

	if !*noConnect && cliutil.IsInteractiveTerminal() {
		client, err := sshcore.Connect(ip, 22, sshConfigFor(ctx.AppConfig))
		if err != nil {
			cliutil.Warnf("ready, but couldn't open a shell automatically: %v", err)
			return
		}
		defer client.Close()
		_ = client.Shell()
	}
}

// askAITools offers an interactive picker over the AI tool catalog when
// --ai-tools=ask was passed, returning a comma-separated tool name list.
func askAITools() string {
	if !cliutil.IsInteractiveTerminal() {
		return "all"
	}
	catalog := pipeline.AIToolCatalog()
	actions := make([]cliutil.Action, 0, len(catalog)+1)
	actions = append(actions, cliutil.Action{Name: "all", Description: "install every AI tool"})
	for _, tool := range catalog {
		actions = append(actions, cliutil.Action{Name: tool.Name, Description: tool.Description})
	}
	name, ok := cliutil.SelectAction("Which AI coding tools should be installed?", actions)
	if !ok {
		return "none"
	}
	return name
}
