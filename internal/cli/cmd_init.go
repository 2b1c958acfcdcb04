package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"spuff/internal/cliutil"
	"spuff/internal/config"
)

// regionsFor/sizesFor mirror init.rs's per-provider pick lists.
func regionsFor(provider string) []string {
	switch provider {
	case "hetzner":
		return []string{"fsn1", "nbg1", "hel1", "ash", "hil"}
	case "aws":
		return []string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-southeast-1"}
	default:
		return []string{"nyc1", "nyc3", "sfo3", "ams3", "lon1", "fra1", "sgp1"}
	}
}

func sizesFor(provider string) []string {
	switch provider {
	case "hetzner":
		return []string{"cx22", "cx32", "cx42", "cx52"}
	case "aws":
		return []string{"t3.small", "t3.medium", "t3.large", "t3.xlarge"}
	default:
		return []string{"s-1vcpu-1gb", "s-2vcpu-4gb", "s-4vcpu-8gb", "s-8vcpu-16gb"}
	}
}

func promptText(prompt, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", prompt, cliutil.StyleDim(def))
	} else {
		fmt.Printf("%s: ", prompt)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func pickFrom(title string, options []string, def int) string {
	actions := make([]cliutil.Action, len(options))
	for i, o := range options {
		actions[i] = cliutil.Action{Name: o}
	}
	if name, ok := cliutil.SelectAction(title, actions); ok {
		return name
	}
	if def >= 0 && def < len(options) {
		return options[def]
	}
	return options[0]
}

// cmdInit interactively writes ~/.config/spuff/config.yaml, grounded on
// init.rs's prompt sequence. Run it from a real terminal; a non-interactive
// invocation still writes the defaults so scripted setup doesn't hang.
func cmdInit(args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)

	fmt.Println(cliutil.StyleHeading("Welcome to spuff!"))
	fmt.Println("Let's configure your ephemeral dev environment.")
	fmt.Println()

	interactive := cliutil.IsInteractiveTerminal()

	providerName := "digitalocean"
	if interactive {
		providerName = pickFrom("Select your cloud provider", []string{"digitalocean", "hetzner", "aws"}, 0)
	}

	apiToken := ""
	if interactive {
		apiToken = promptText(fmt.Sprintf("Enter your %s API token", providerName), "")
	}

	region := regionsFor(providerName)[0]
	size := sizesFor(providerName)[1]
	if interactive {
		region = pickFrom("Select default region", regionsFor(providerName), 0)
		size = pickFrom("Select default instance size", sizesFor(providerName), 1)
	}

	idleTimeout := "2h"
	environment := "devbox"
	dotfiles := ""
	sshKeyPath := "~/.ssh/id_ed25519"
	if interactive {
		idleTimeout = promptText("Auto-destroy after idle (e.g. 2h, 30m)", idleTimeout)
		environment = pickFrom("Environment type", []string{"devbox", "nix", "docker"}, 0)
		dotfiles = promptText("Dotfiles repository (optional)", "")
		sshKeyPath = promptText("SSH private key path", sshKeyPath)
	}

	cfg := config.DefaultAppConfig()
	cfg.Provider = providerName
	cfg.APIToken = apiToken
	cfg.Region = region
	cfg.Size = size
	cfg.IdleTimeout = idleTimeout
	cfg.Environment = environment
	cfg.Dotfiles = dotfiles
	cfg.SSHKeyPath = sshKeyPath

	if err := cfg.Save(); err != nil {
		cliutil.Fatal(err)
	}

	path, _ := config.ConfigPath()
	cliutil.PrintResult("Configuration saved", map[string]interface{}{
		"config_path": path,
		"provider":    cfg.Provider,
		"region":      cfg.Region,
		"size":        cfg.Size,
	}, jsonOut)
	if !jsonOut {
		fmt.Println()
		fmt.Printf("Run %s to create your first environment.\n", cliutil.StyleCmd("spuff up"))
	}
}
