package editor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCommand(t *testing.T) {
	t.Setenv("PRDIFF_EDITOR", "")
	t.Setenv("EDITOR", "")
	require.Equal(t, DefaultCommand, ResolveCommand(""))
	require.Equal(t, "code -g", ResolveCommand("code -g"))

	t.Setenv("EDITOR", "vim")
	require.Equal(t, "vim", ResolveCommand(""))

	t.Setenv("PRDIFF_EDITOR", "hx")
	require.Equal(t, "hx", ResolveCommand(""))
	require.Equal(t, "code -g", ResolveCommand("code -g"))
}

func TestBuildCommandLine(t *testing.T) {
	got := BuildCommandLine("code -g {file}:{line}", "a/main.go", 42)
	require.Equal(t, "code -g a/main.go:42", got)

	// No placeholders: quoted path appended.
	got = BuildCommandLine("vim", "my file.go", 1)
	require.Equal(t, "vim 'my file.go'", got)

	// Placeholder form still quotes awkward paths.
	got = BuildCommandLine("hx {file}", "my file.go", 1)
	require.Equal(t, "hx 'my file.go'", got)
}

func TestOpen_EmptyCommand(t *testing.T) {
	require.Error(t, Open("  ", "a.go", 1))
}

func TestOpen_Detaches(t *testing.T) {
	// `true` exits immediately; Open must not error and must not wait.
	require.NoError(t, Open("true", "a.go", 1))
}
