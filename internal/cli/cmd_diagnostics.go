package cli

import (
	"flag"
	"fmt"
	"strconv"

	"spuff/internal/agentclient"
	"spuff/internal/cliutil"
	"spuff/internal/sshcore"
)

// agentLogDir is where the agent keeps the whitelisted log files /logs
// serves tails of; only file names resolving under it are ever sent.
const agentLogDir = "/var/log/spuff"

// connectAgent is the common preamble every diagnostics command shares:
// load context, require an active instance, open an SSH client to it.
func connectAgent() (*sshcore.Client, string, error) {
	ctx, err := loadContext()
	if err != nil {
		return nil, "", err
	}
	instance, err := requireActiveInstance(ctx)
	ctx.Store.Close()
	if err != nil {
		return nil, "", err
	}
	client, err := sshcore.Connect(instance.IP, 22, sshConfigFor(ctx.AppConfig))
	if err != nil {
		return nil, "", err
	}
	return client, ctx.AppConfig.AgentToken, nil
}

// cmdLogs tails a whitelisted on-box log file: GET /logs?lines=&file=.
func cmdLogs(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	lines := fs.Int("lines", 100, "number of trailing lines")
	file := fs.String("file", "spuff-agent.log", "log file name, relative to the agent's log directory")
	_ = fs.Parse(args)

	if _, err := cliutil.ValidatePathWithin(agentLogDir, *file); err != nil {
		cliutil.Fatal(err)
	}

	client, token, err := connectAgent()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	var resp agentclient.LogsResponse
	endpoint := fmt.Sprintf("/logs?lines=%d&file=%s", *lines, *file)
	if err := agentclient.Request(client, endpoint, token, &resp); err != nil {
		cliutil.Fatal(err)
	}

	if jsonOut {
		cliutil.PrintResult("Logs", map[string]interface{}{"file": resp.File, "lines": resp.Lines}, true)
		return
	}
	for _, line := range resp.Lines {
		fmt.Println(line)
	}
}

// cmdActivity shows the agent's in-memory event log: GET /activity?limit=.
func cmdActivity(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	limit := fs.Int("limit", 50, "number of trailing entries")
	_ = fs.Parse(args)

	client, token, err := connectAgent()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	var resp agentclient.ActivityLogResponse
	endpoint := fmt.Sprintf("/activity?limit=%d", *limit)
	if err := agentclient.Request(client, endpoint, token, &resp); err != nil {
		cliutil.Fatal(err)
	}

	if jsonOut {
		cliutil.PrintResult("Activity", map[string]interface{}{"entries": resp.Entries}, true)
		return
	}
	rows := make([][]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		details := ""
		if e.Details != nil {
			details = *e.Details
		}
		rows = append(rows, []string{e.Timestamp, e.Event, cliutil.Truncate(details, 80)})
	}
	cliutil.PrintTable([]string{"time", "event", "details"}, rows, 2)
}

// cmdExecLog shows the agent's persistent command log: GET /exec-log?lines=.
func cmdExecLog(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	fs := flag.NewFlagSet("exec-log", flag.ExitOnError)
	lines := fs.Int("lines", 50, "number of trailing entries")
	_ = fs.Parse(args)

	client, token, err := connectAgent()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	var resp agentclient.ExecLogResponse
	endpoint := fmt.Sprintf("/exec-log?lines=%d", *lines)
	if err := agentclient.Request(client, endpoint, token, &resp); err != nil {
		cliutil.Fatal(err)
	}

	if jsonOut {
		cliutil.PrintResult("Exec log", map[string]interface{}{"entries": resp.Entries, "count": resp.Count}, true)
		return
	}
	rows := make([][]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		rows = append(rows, []string{e.Timestamp, e.Event, cliutil.Truncate(e.Details, 80)})
	}
	cliutil.PrintTable([]string{"time", "event", "command"}, rows, 2)
}

// cmdMetrics shows a live CPU/mem/disk/load snapshot: GET /metrics.
func cmdMetrics(args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)

	client, token, err := connectAgent()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	var m agentclient.AgentMetrics
	if err := agentclient.Request(client, "/metrics", token, &m); err != nil {
		cliutil.Fatal(err)
	}

	fields := map[string]interface{}{
		"hostname":       m.Hostname,
		"os":             m.OS,
		"cpus":           m.CPUs,
		"cpu_usage_pct":  fmt.Sprintf("%.1f", m.CPUUsage),
		"memory":         fmt.Sprintf("%s / %s (%.1f%%)", cliutil.FormatBytes(m.MemoryUsed), cliutil.FormatBytes(m.MemoryTotal), m.MemoryPercent),
		"disk":           fmt.Sprintf("%s / %s (%.1f%%)", cliutil.FormatBytes(m.DiskUsed), cliutil.FormatBytes(m.DiskTotal), m.DiskPercent),
		"load_avg_1_5_15": fmt.Sprintf("%.2f %.2f %.2f", m.LoadAvg.One, m.LoadAvg.Five, m.LoadAvg.Fifteen),
	}
	cliutil.PrintResult("Metrics", fields, jsonOut)
}

// cmdProcesses shows the top processes by CPU usage: GET /processes.
func cmdProcesses(args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)

	client, token, err := connectAgent()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	var procs []agentclient.ProcessInfo
	if err := agentclient.Request(client, "/processes", token, &procs); err != nil {
		cliutil.Fatal(err)
	}

	if jsonOut {
		cliutil.PrintResult("Processes", map[string]interface{}{"processes": procs}, true)
		return
	}
	rows := make([][]string, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, []string{
			strconv.Itoa(int(p.PID)), p.Name,
			fmt.Sprintf("%.1f%%", p.CPUUsage), cliutil.FormatBytes(p.Memory),
		})
	}
	cliutil.PrintTable([]string{"pid", "name", "cpu", "mem"}, rows, 2)
}
