package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"spuff/internal/agentclient"
	"spuff/internal/cliutil"
	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/sshcore"
)

// cmdStatus prints the active instance's status. Grounded on
// status/mod.rs: a local summary is always shown (provider, region, size,
// uptime from the state store); --detailed additionally reaches out to
// the provider API and the on-box agent for live data.
func cmdStatus(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)

	fs := flag.NewFlagSet("status", flag.ExitOnError)
	detailed := fs.Bool("detailed", false, "fetch live provider and agent status")
	fs.BoolVar(detailed, "d", false, "fetch live provider and agent status (shorthand)")
	_ = fs.Parse(args)

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	instance, err := requireActiveInstance(ctx)
	if err != nil {
		cliutil.Fatal(err)
	}

	uptime := time.Since(instance.CreatedAt).Round(time.Second)
	fields := map[string]interface{}{
		"name":     instance.Name,
		"ip":       instance.IP,
		"provider": instance.Provider,
		"region":   instance.Region,
		"size":     instance.Size,
		"uptime":   uptime.String(),
	}

	if !*detailed {
		cliutil.PrintResult("Status", fields, jsonOut)
		if proj, _ := currentProjectConfig(); proj != nil {
			cliutil.Infof("Run 'spuff status --detailed' for live bootstrap and devtools progress.")
		}
		return
	}

	bgCtx := context.Background()
	if prov, err := ctx.Registry.CreateByName(bgCtx, instance.Provider, ctx.AppConfig.APIToken, provider.DefaultTimeouts()); err == nil {
		if live, ok, err := prov.GetInstance(bgCtx, instance.ID); err == nil && ok {
			fields["remote_status"] = live.Status.String()
		}
	}

	client, err := sshcore.Connect(instance.IP, 22, sshConfigFor(ctx.AppConfig))
	if err != nil {
		cliutil.PrintResult("Status", fields, jsonOut)
		cliutil.Warnf("couldn't reach the agent: %v", err)
		return
	}
	defer client.Close()

	token := ctx.AppConfig.AgentToken

	var agentStatus agentclient.AgentStatus
	if err := agentclient.Request(client, "/status", token, &agentStatus); err == nil {
		fields["agent_version"] = agentStatus.AgentVersion
		fields["cloud_init_done"] = agentStatus.CloudInitDone
		fields["bootstrap_status"] = agentStatus.BootstrapStatus
		fields["agent_idle_seconds"] = agentStatus.IdleSeconds
	}

	var devtools agentclient.DevToolsState
	if err := agentclient.Request(client, "/devtools", token, &devtools); err == nil {
		fields["devtools"] = devtools
	}

	var projState config.ProjectSetupState
	if err := agentclient.Request(client, "/project/status", token, &projState); err == nil {
		fields["project_setup"] = projState
	}

	cliutil.PrintResult("Status", fields, jsonOut)
	if jsonOut {
		return
	}
	printDevtoolsTable(devtools)
	printProjectSetupTable(projState)
}

func printDevtoolsTable(d agentclient.DevToolsState) {
	if len(d.Tools) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(cliutil.StyleHeading("AI tools"))
	rows := make([][]string, 0, len(d.Tools))
	for _, t := range d.Tools {
		status := t.Status
		switch status {
		case agentclient.DevToolDone:
			status = cliutil.StyleSuccess(status)
		case agentclient.DevToolFailed:
			status = cliutil.StyleError(status)
		case agentclient.DevToolInstalling:
			status = cliutil.StyleWarn(status)
		default:
			status = cliutil.StyleDim(status)
		}
		reason := ""
		if t.Error != nil {
			reason = *t.Error
		}
		rows = append(rows, []string{t.Name, status, reason})
	}
	cliutil.PrintTable([]string{"tool", "status", "error"}, rows, 2)
}

func printProjectSetupTable(s config.ProjectSetupState) {
	if !s.Started {
		return
	}
	fmt.Println()
	fmt.Println(cliutil.StyleHeading("Project setup"))
	rows := make([][]string, 0, len(s.Bundles)+len(s.Repositories)+len(s.Scripts)+1)
	for _, b := range s.Bundles {
		rows = append(rows, []string{"bundle:" + b.Name, b.Status.State, b.Status.Reason})
	}
	rows = append(rows, []string{"packages", s.Packages.Status.State, s.Packages.Status.Reason})
	rows = append(rows, []string{"services", s.Services.Status.State, s.Services.Status.Reason})
	for _, r := range s.Repositories {
		rows = append(rows, []string{"repo:" + r.Path, r.Status.State, r.Status.Reason})
	}
	for _, sc := range s.Scripts {
		rows = append(rows, []string{"script:" + sc.Script, sc.Status.State, sc.Status.Reason})
	}
	cliutil.PrintTable([]string{"step", "state", "reason"}, rows, 2)
}
