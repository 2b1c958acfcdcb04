// Package cliutil holds the terminal styling, prompt, and flag-parsing
// helpers shared by every spuff subcommand.
package cliutil

import (
	"math"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

var ansiEnabled = initAnsiEnabled()

func initAnsiEnabled() bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || strings.TrimSpace(os.Getenv("SPUFF_NO_COLOR")) != "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	if force := strings.TrimSpace(os.Getenv("SPUFF_COLOR")); force != "" {
		return force == "1" || strings.EqualFold(force, "true")
	}
	if force := strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")); force != "" && force != "0" {
		return true
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func Ansi(codes ...string) string {
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func Colorize(s string, codes ...string) string {
	if !ansiEnabled || s == "" {
		return s
	}
	return Ansi(codes...) + s + Ansi("0")
}

func StyleHeading(s string) string { return Colorize(s, "1", "36") }
func StyleCmd(s string) string     { return Colorize(s, "1", "32") }
func StyleFlag(s string) string    { return Colorize(s, "33") }
func StyleArg(s string) string     { return Colorize(s, "35") }
func StyleDim(s string) string     { return Colorize(s, "90") }
func StyleInfo(s string) string    { return Colorize(s, "36") }
func StyleSuccess(s string) string { return Colorize(s, "32") }
func StyleWarn(s string) string    { return Colorize(s, "33") }
func StyleError(s string) string   { return Colorize(s, "31") }
func StyleUsage(s string) string   { return Colorize(s, "1", "33") }

// StyleStatus colors a status word consistently across status/volume/snapshot output.
func StyleStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "ready", "done", "success", "mounted", "healthy", "running", "up", "yes", "true":
		return StyleSuccess(s)
	case "pending", "starting", "in_progress", "warning", "degraded":
		return StyleWarn(s)
	case "failed", "error", "off", "unhealthy", "missing", "stopped", "no", "false":
		return StyleError(s)
	default:
		return StyleInfo(s)
	}
}

// StyleLimitByPct colors a percentage-bearing string (disk/cpu/mem) by how close it is to full.
func StyleLimitByPct(text string, pct float64) string {
	if strings.TrimSpace(text) == "" || pct < 0 {
		return text
	}
	rounded := int(math.Round(pct))
	switch {
	case rounded >= 100:
		return Colorize(text, "1", "37")
	case rounded <= 60:
		return Colorize(text, "32")
	case rounded <= 85:
		return Colorize(text, "33")
	default:
		return Colorize(text, "31")
	}
}

var ansiStripRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func StripANSI(s string) string { return ansiStripRe.ReplaceAllString(s, "") }

func ContainsANSI(s string) bool { return ansiStripRe.MatchString(s) }

// DisplayWidth measures the terminal cell width of s, accounting for ANSI
// escapes and wide/zero-width runes (grounded on the teacher's padding logic).
func DisplayWidth(s string) int {
	s = StripANSI(s)
	width := 0
	for len(s) > 0 {
		r, n := utf8.DecodeRuneInString(s)
		s = s[n:]
		switch {
		case r == utf8.RuneError && n == 1:
			width++
		case isZeroWidthRune(r):
		case isWideRune(r):
			width += 2
		default:
			width++
		}
	}
	return width
}

func isZeroWidthRune(r rune) bool {
	switch {
	case r == 0:
		return true
	case r == 0x200b || r == 0x200c || r == 0x200d:
		return true
	case r >= 0xfe00 && r <= 0xfe0f:
		return true
	}
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Cf, r)
}

func isWideRune(r rune) bool {
	if r < 0x1100 {
		return false
	}
	return (r >= 0x1100 && r <= 0x115f) ||
		r == 0x2329 || r == 0x232a ||
		(r >= 0x2e80 && r <= 0xa4cf && r != 0x303f) ||
		(r >= 0xac00 && r <= 0xd7a3) ||
		(r >= 0xf900 && r <= 0xfaff) ||
		(r >= 0xff00 && r <= 0xff60) ||
		(r >= 0x1f300 && r <= 0x1f64f) ||
		(r >= 0x1f900 && r <= 0x1f9ff) ||
		(r >= 0x20000 && r <= 0x3fffd)
}

func PadRight(s string, width int) string {
	visible := DisplayWidth(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
