// Package editor opens the selected file in the user's editor without
// disturbing the terminal session.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// DefaultCommand is used when nothing else is configured.
const DefaultCommand = "zed"

// ResolveCommand picks the editor command line: explicit configuration,
// then PRDIFF_EDITOR, then EDITOR, then the default.
func ResolveCommand(configured string) string {
	for _, c := range []string{configured, os.Getenv("PRDIFF_EDITOR"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return DefaultCommand
}

// BuildCommandLine expands {file} and {line} placeholders in command. A
// command without placeholders gets the quoted path appended.
func BuildCommandLine(command, path string, line int) string {
	quoted := shellescape.Quote(path)
	if strings.Contains(command, "{file}") || strings.Contains(command, "{line}") {
		out := strings.ReplaceAll(command, "{file}", quoted)
		out = strings.ReplaceAll(out, "{line}", strconv.Itoa(line))
		return out
	}
	return command + " " + quoted
}

// Open launches the editor detached, so closing the viewer never kills
// it and the viewer never waits on it.
func Open(command, path string, line int) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("editor: empty command")
	}
	cmdline := BuildCommandLine(command, path, line)
	cmd := exec.Command("/bin/sh", "-c", cmdline)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("editor: start %q: %w", cmdline, err)
	}
	return cmd.Process.Release()
}
