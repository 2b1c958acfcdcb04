package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"spuff/internal/agentclient"
	"spuff/internal/cliutil"
	"spuff/internal/sshcore"
)

// interactiveCommands is agent/exec.rs's INTERACTIVE_COMMANDS list
// verbatim: commands known to need a real TTY (editors, pagers, monitors,
// REPLs, shells, multiplexers).
var interactiveCommands = map[string]bool{
	"bash": true, "sh": true, "zsh": true, "fish": true, "dash": true, "ksh": true, "csh": true, "tcsh": true,
	"vim": true, "vi": true, "nano": true, "emacs": true, "nvim": true, "helix": true, "hx": true,
	"less": true, "more": true, "man": true,
	"htop": true, "top": true, "iotop": true, "btop": true, "glances": true, "nmon": true,
	"python": true, "python3": true, "node": true, "irb": true, "iex": true, "ghci": true, "lua": true, "erl": true,
	"tmux": true, "screen": true,
	"tig": true,
}

// isInteractiveCommand reports whether command's base program is known to
// require a PTY, special-casing interactive git invocations.
func isInteractiveCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	base := fields[0]
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if interactiveCommands[base] {
		return true
	}
	if base == "git" {
		lower := strings.ToLower(command)
		for _, flag := range []string{" -i", " -p", " add -i", " add -p", " rebase -i"} {
			if strings.Contains(lower, flag) {
				return true
			}
		}
	}
	return false
}

func detectNeedsTTY(command string) bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return isInteractiveCommand(command)
}

// cmdExec runs a command on the active instance, grounded on
// agent/exec.rs's exec(): PTY over SSH for commands that need one, the
// agent's /exec endpoint otherwise (lower overhead, no PTY allocation).
func cmdExec(args []string) {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	forceTTY := fs.Bool("t", false, "force a PTY")
	noTTY := fs.Bool("T", false, "forbid a PTY")
	_ = fs.Parse(args)

	command := strings.Join(fs.Args(), " ")
	if command == "" {
		cliutil.Fatal(fmt.Errorf("usage: spuff exec [-t|-T] <command>"))
	}

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	instance, err := requireActiveInstance(ctx)
	ctx.Store.Close()
	if err != nil {
		cliutil.Fatal(err)
	}

	needsTTY := detectNeedsTTY(command)
	if *forceTTY {
		needsTTY = true
	} else if *noTTY {
		needsTTY = false
	}

	client, err := sshcore.Connect(instance.IP, 22, sshConfigFor(ctx.AppConfig))
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	if needsTTY {
		code, err := client.ExecInteractive(command)
		if err != nil {
			cliutil.Fatal(err)
		}
		if code != 0 {
			os.Exit(code)
		}
		return
	}

	var resp agentclient.ExecResponse
	req := struct {
		Command string `json:"command"`
	}{Command: command}
	if err := agentclient.RequestPost(client, "/exec", ctx.AppConfig.AgentToken, req, &resp); err != nil {
		cliutil.Fatal(err)
	}
	if resp.Stdout != "" {
		fmt.Print(resp.Stdout)
	}
	if resp.Stderr != "" {
		fmt.Fprint(os.Stderr, resp.Stderr)
	}
	if resp.ExitCode != 0 {
		os.Exit(resp.ExitCode)
	}
}
