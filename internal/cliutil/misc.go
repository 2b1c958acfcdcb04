package cliutil

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

// FilterEnv dedups env entries by KEY=, keeping the last occurrence of each
// key. Grounded on the teacher's env.go.
func FilterEnv(env []string) []string {
	if len(env) == 0 {
		return nil
	}
	filtered := make([]string, 0, len(env))
	seen := map[string]int{}
	for _, entry := range env {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key := entry
		if idx := strings.Index(entry, "="); idx >= 0 {
			key = entry[:idx]
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if existing, ok := seen[key]; ok {
			filtered[existing] = entry
			continue
		}
		seen[key] = len(filtered)
		filtered = append(filtered, entry)
	}
	return filtered
}

// SecureIntn returns a cryptographically random integer in [0, max).
// Used by RandomInstanceName below. Grounded on the teacher's
// secure_random.go.
func SecureIntn(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be > 0")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

const randomNameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomInstanceName returns "spuff-XXXXXXXX" with a random lowercase
// alphanumeric suffix, matching the literal form in the provisioning
// end-to-end scenarios.
func RandomInstanceName() (string, error) {
	suffix := make([]byte, 8)
	for i := range suffix {
		n, err := SecureIntn(len(randomNameAlphabet))
		if err != nil {
			return "", err
		}
		suffix[i] = randomNameAlphabet[n]
	}
	return "spuff-" + string(suffix), nil
}

// CleanLocalPath and the Open* helpers below wrap os file operations with a
// filepath.Clean pass. Grounded on the teacher's localfs.go.
func CleanLocalPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path required")
	}
	return filepath.Clean(path), nil
}

func ReadLocalFile(path string) ([]byte, error) {
	path, err := CleanLocalPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- local CLI path handling intentionally supports variable paths.
	return os.ReadFile(path)
}

func OpenLocalFile(path string) (*os.File, error) {
	path, err := CleanLocalPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- local CLI path handling intentionally supports variable paths.
	return os.Open(path)
}

func OpenLocalFileFlags(path string, flags int, perm os.FileMode) (*os.File, error) {
	path, err := CleanLocalPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- local CLI path handling intentionally supports variable paths.
	return os.OpenFile(path, flags, perm)
}

// ValidateSlug checks a name is non-empty and restricted to letters, digits,
// '-' and '_' — used for instance/volume/context names entered by the user.
func ValidateSlug(name string) error {
	if name == "" {
		return errors.New("name required")
	}
	for _, ch := range name {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			continue
		}
		return fmt.Errorf("invalid name %q (allowed: letters, numbers, - and _)", name)
	}
	return nil
}

// FormatDuration renders whole seconds as "Xh Ym Zs" / "Ym Zs" / "Zs",
// grounded on original_source/src/utils.rs's format_duration.
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	switch {
	case hours == 0 && minutes == 0:
		return fmt.Sprintf("%ds", secs)
	case hours == 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
}

// FormatBytes renders a byte count using binary units with one decimal
// place, grounded on original_source/src/utils.rs's format_bytes.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// Truncate shortens s to maxLen runes, appending "..." when truncation
// actually occurred. Grounded on original_source/src/utils.rs's truncate.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// ValidatePathWithin reports whether name, once joined to baseDir and
// cleaned, still resolves inside baseDir — rejecting "../" escapes before
// a log-file name chosen by the user ever reaches a remote command line.
// Grounded on original_source/src/utils.rs's validate_path_within; the
// agent enforces its own whitelist too, this is defence in depth on the
// client side.
func ValidatePathWithin(baseDir, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	joined := filepath.Join(baseDir, name)
	rel, err := filepath.Rel(baseDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", name, baseDir)
	}
	return joined, nil
}
