package cli

import (
	"os"
	"sync"

	"spuff/internal/cliutil"
)

type commandHandler func(args []string)

var (
	handlersOnce sync.Once
	handlers     map[string]commandHandler
)

func getHandlers() map[string]commandHandler {
	handlersOnce.Do(func() {
		handlers = buildHandlers()
	})
	return handlers
}

func buildHandlers() map[string]commandHandler {
	h := make(map[string]commandHandler, 32)
	register := func(fn commandHandler, names ...string) {
		for _, name := range names {
			h[name] = fn
		}
	}

	register(func(_ []string) { printVersion() }, "version", "--version", "-v")
	register(func(_ []string) { printUsage() }, "help", "--help", "-h")
	register(cmdInit, "init")
	register(cmdUp, "up")
	register(cmdDown, "down")
	register(cmdSSH, "ssh")
	register(cmdTunnel, "tunnel")
	register(cmdExec, "exec")
	register(cmdStatus, "status")
	register(cmdLogs, "logs")
	register(cmdActivity, "activity")
	register(cmdExecLog, "exec-log")
	register(cmdMetrics, "metrics")
	register(cmdProcesses, "processes")
	register(cmdSnapshot, "snapshot")
	register(cmdVolume, "volume")
	register(cmdConfig, "config")

	return h
}

// Main is the whole of the command-line entry point; cmd/spuff/main.go
// calls it with os.Args[1:] and exits with the returned status.
func Main(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}
	cmd := args[0]
	rest := args[1:]

	handler, ok := getHandlers()[cmd]
	if !ok {
		cliutil.PrintUnknown("", cmd)
		printUsage()
		return 1
	}
	handler(rest)
	return 0
}

func printUsage() {
	cliutil.PrintUsage(`spuff [command] [args]

Provision, connect to, and tear down an ephemeral cloud development box.

Commands:
  init                         Interactively write ~/.config/spuff/config.yaml
  up                           Provision a new environment
  down                         Tear down the active environment
  ssh                          Open an interactive shell to it
  tunnel                       Forward project ports in the background
  exec <cmd>                   Run a command on it
  status                       Show the active environment's status
  logs, activity, exec-log,    Diagnostics via the on-box agent
    metrics, processes
  snapshot {create|list|delete}
  volume {list|status|mount|unmount|remount}
  config {show|set|edit}

All commands except ssh, tunnel, exec and config edit accept a trailing
--json flag for machine-readable output.`)
}

func printVersion() {
	os.Stdout.WriteString(spuffVersion + "\n")
}

const spuffVersion = "spuff 0.1.0"
