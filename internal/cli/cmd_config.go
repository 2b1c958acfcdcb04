package cli

import (
	"fmt"
	"os"
	"os/exec"

	"spuff/internal/cliutil"
	"spuff/internal/config"
)

// cmdConfig dispatches show/set/edit, grounded on
// original_source/src/cli/commands/config.rs.
func cmdConfig(args []string) {
	if len(args) == 0 {
		cmdConfigShow(nil)
		return
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		cmdConfigShow(rest)
	case "set":
		cmdConfigSet(rest)
	case "edit":
		cmdConfigEdit()
	default:
		cliutil.PrintUnknown("config", sub)
	}
}

func cmdConfigShow(args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)

	cfg, err := config.LoadAppConfig()
	if err != nil {
		cliutil.Fatal(err)
	}
	if cfg.Provider == "" {
		cliutil.Infof("No configuration found. Run `spuff init` to create one.")
		return
	}

	fields := map[string]interface{}{
		"provider":          cfg.Provider,
		"region":            cfg.Region,
		"size":              cfg.Size,
		"idle_timeout":      cfg.IdleTimeout,
		"environment":       cfg.Environment,
		"dotfiles":          cfg.Dotfiles,
		"ssh_key_path":      cfg.SSHKeyPath,
		"ssh_user":          cfg.SSHUser,
		"tailscale_enabled": cfg.TailscaleEnabled,
	}
	cliutil.PrintResult("Config", fields, jsonOut)
}

// availableConfigKeys lists every key cmdConfigSet recognizes, shown back
// to the user on an unknown-key error.
var availableConfigKeys = []string{
	"provider", "region", "size", "idle_timeout", "environment",
	"dotfiles", "ssh_key", "ssh_user", "tailscale",
}

func cmdConfigSet(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	if len(args) < 2 {
		cliutil.Fatal(fmt.Errorf("usage: spuff config set <key> <value>"))
	}
	key, value := args[0], args[1]

	cfg, err := config.LoadAppConfig()
	if err != nil {
		cliutil.Fatal(err)
	}

	switch key {
	case "provider":
		cfg.Provider = value
	case "region":
		cfg.Region = value
	case "size":
		cfg.Size = value
	case "idle_timeout", "idle-timeout":
		cfg.IdleTimeout = value
	case "environment":
		cfg.Environment = value
	case "dotfiles":
		cfg.Dotfiles = value
	case "ssh_key", "ssh-key":
		cfg.SSHKeyPath = value
	case "ssh_user", "ssh-user":
		cfg.SSHUser = value
	case "tailscale":
		cfg.TailscaleEnabled = value == "true" || value == "1" || value == "yes"
	default:
		cliutil.Fatal(fmt.Errorf("unknown config key %q. Available keys: %v", key, availableConfigKeys))
	}

	if err := cfg.Save(); err != nil {
		cliutil.Fatal(err)
	}
	cliutil.PrintResult("Config updated", map[string]interface{}{key: value}, jsonOut)
}

func cmdConfigEdit() {
	path, err := config.ConfigPath()
	if err != nil {
		cliutil.Fatal(err)
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		cliutil.Fatal(err)
	}
}
