package cliutil

import (
	"fmt"
	"os"
)

// Fatal prints err in the error style and exits the process with status 1.
// Grounded on the teacher's fatal(err) in util.go.
func Fatal(err error) {
	_, _ = fmt.Fprintln(os.Stderr, StyleError(err.Error()))
	os.Exit(1)
}

func Warnf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, StyleWarn("warning:")+" "+fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ContainsANSI(msg) {
		fmt.Println(msg)
		return
	}
	fmt.Println(StyleInfo(msg))
}

func Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ContainsANSI(msg) {
		fmt.Println(msg)
		return
	}
	fmt.Println(StyleSuccess(msg))
}

func PrintUsage(line string) {
	fmt.Println(StyleUsage(line))
}

func PrintUnknown(kind, cmd string) {
	if kind != "" {
		kind += " "
	}
	fmt.Fprintf(os.Stderr, "%s %scommand: %s\n", StyleError("unknown"), kind, StyleCmd(cmd))
}
