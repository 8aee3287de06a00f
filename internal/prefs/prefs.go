// Package prefs persists small per-repository preferences in the
// repository's local git config, so they follow the repo rather than
// the machine.
package prefs

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	keySplitPercent = "prdiff.splitpercent"
	keyTheme        = "prdiff.theme"
)

// Prefs are the saved per-repo preferences. Zero values mean "unset".
type Prefs struct {
	SplitPercent int
	Theme        string
}

// Load reads preferences from the repo's local git config. Unset keys
// are not errors.
func Load(repoRoot string) Prefs {
	var p Prefs
	if v, ok := get(repoRoot, keySplitPercent); ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.SplitPercent = n
		}
	}
	if v, ok := get(repoRoot, keyTheme); ok {
		p.Theme = v
	}
	return p
}

// SaveSplitPercent persists the tree/diff split.
func SaveSplitPercent(repoRoot string, percent int) error {
	return set(repoRoot, keySplitPercent, strconv.Itoa(percent))
}

// SaveTheme persists the theme choice.
func SaveTheme(repoRoot, name string) error {
	return set(repoRoot, keyTheme, name)
}

func get(repoRoot, key string) (string, bool) {
	cmd := exec.Command("git", "config", "--local", "--get", key)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

func set(repoRoot, key, value string) error {
	cmd := exec.Command("git", "config", "--local", key, value)
	cmd.Dir = repoRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("prefs: set %s: %v: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}
