package cliutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// IsInteractiveTerminal reports whether stdin and stdout are both attached
// to a terminal, gating every prompt in the CLI.
func IsInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func isEscCancel(value string) bool {
	return strings.ContainsRune(value, '\x1b')
}

func promptLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ConfirmYN prompts for a y/n confirmation. Returns (confirmed, ok); ok is
// false when the prompt was cancelled (Esc) or stdin/stdout is not a
// terminal. Grounded on the teacher's confirm.go.
func ConfirmYN(prompt string, defaultYes bool) (bool, bool) {
	if !IsInteractiveTerminal() {
		return false, false
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = "Confirm"
	}
	def := "N"
	if defaultYes {
		def = "Y"
	}
	for {
		fmt.Fprintf(os.Stdout, "%s [y/%s]: ", prompt, def)
		line, err := promptLine(os.Stdin)
		if err != nil {
			return false, false
		}
		if isEscCancel(line) {
			return false, false
		}
		line = strings.TrimSpace(strings.ToLower(line))
		switch line {
		case "":
			return defaultYes, true
		case "y", "yes":
			return true, true
		case "n", "no":
			return false, true
		default:
			fmt.Fprintln(os.Stdout, StyleDim("please answer y or n (Esc to cancel)"))
		}
	}
}

// Action names one entry of an interactive picker menu.
type Action struct {
	Name        string
	Description string
}

// SelectAction renders a numbered menu and returns the chosen action's name.
// Grounded on the teacher's subcommand_interactive.go picker.
func SelectAction(title string, actions []Action) (string, bool) {
	if !IsInteractiveTerminal() || len(actions) == 0 {
		return "", false
	}
	fmt.Println(StyleHeading(title))
	options := make([]string, 0, len(actions))
	for i, action := range actions {
		fmt.Printf("  %2d) %-10s %s\n", i+1, action.Name, StyleDim(action.Description))
		options = append(options, action.Name)
	}
	fmt.Printf("%s ", StyleDim(fmt.Sprintf("Select command [1-%d] (Enter/Esc to cancel):", len(options))))
	line, err := promptLine(os.Stdin)
	if err != nil {
		return "", false
	}
	if isEscCancel(line) {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(options) {
		fmt.Println(StyleDim("invalid selection"))
		return "", false
	}
	return options[idx-1], true
}

// ResolveDispatchArgs returns args unchanged when non-empty; otherwise, if
// interactive, offers a picker built from selectFn.
func ResolveDispatchArgs(args []string, interactive bool, selectFn func() (string, bool)) ([]string, bool, bool) {
	if len(args) > 0 {
		return args, false, true
	}
	if !interactive {
		return nil, true, false
	}
	selected, ok := selectFn()
	if !ok {
		return nil, false, false
	}
	return []string{selected}, false, true
}
