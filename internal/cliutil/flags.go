package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ParseJSONFlag splits a trailing --json / --json=<bool> flag out of args,
// grounded on the teacher's paas_cmd.go:parsePaasJSONFlag.
func ParseJSONFlag(args []string) ([]string, bool) {
	jsonOut := false
	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		value := strings.TrimSpace(arg)
		switch {
		case value == "--json":
			jsonOut = true
		case strings.HasPrefix(value, "--json="):
			tail := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "--json=")))
			switch tail {
			case "", "true", "1", "yes", "on":
				jsonOut = true
			case "false", "0", "no", "off":
			default:
				filtered = append(filtered, arg)
			}
		default:
			filtered = append(filtered, arg)
		}
	}
	return filtered, jsonOut
}

// Envelope is the standard JSON output wrapper for every spuff command run
// with --json, mirroring the teacher's paasScaffoldEnvelope shape.
type Envelope struct {
	OK      bool                   `json:"ok"`
	Command string                 `json:"command"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// PrintResult renders either a JSON envelope or a human key/value table.
func PrintResult(command string, fields map[string]interface{}, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(Envelope{OK: true, Command: command, Fields: fields})
		return
	}
	Successf("%s", command)
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{k, toDisplay(fields[k])})
	}
	PrintKeyValue(rows)
}

func toDisplay(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func PrintKeyValue(rows [][2]string) {
	if len(rows) == 0 {
		return
	}
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{row[0], row[1]})
	}
	for _, line := range RenderTable([]string{"", ""}, tableRows, 1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Println(line)
	}
}
