// Package cli wires flags and configuration into the viewer.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/interpretive-systems/prdiff/internal/config"
	"github.com/interpretive-systems/prdiff/internal/editor"
	"github.com/interpretive-systems/prdiff/internal/gitx"
	"github.com/interpretive-systems/prdiff/internal/logging"
	"github.com/interpretive-systems/prdiff/internal/prefs"
	"github.com/interpretive-systems/prdiff/internal/theme"
	"github.com/interpretive-systems/prdiff/internal/ui"
	"github.com/interpretive-systems/prdiff/internal/watcher"
)

var version = "dev"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var (
		repoPath  string
		baseFlag  string
		themeFlag string
	)

	cmd := &cobra.Command{
		Use:   "prdiff [base]",
		Short: "Live view of your branch's full diff against its base",
		Long: `prdiff shows everything your working branch changes relative to a base
branch: committed, staged, unstaged, and untracked work, in one tree.
The view follows the repository as you edit, commit, and rebase.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := baseFlag
			if len(args) == 1 {
				base = args[0]
			}
			return run(repoPath, base, themeFlag)
		},
	}
	cmd.Flags().StringVarP(&repoPath, "repo", "r", ".", "path inside the repository to view")
	cmd.Flags().StringVarP(&baseFlag, "base", "b", "", "base branch (default: develop, main, or master)")
	cmd.Flags().StringVar(&themeFlag, "theme", "", "color theme: dark or light")
	return cmd
}

// run does everything that can fail before the terminal is taken over,
// so errors print normally and exit non-zero.
func run(repoPath, base, themeName string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Nop()
	if cfg.Log.File != "" {
		log = logging.ToFile(cfg.Log.File, slog.LevelDebug)
	}

	root, err := gitx.RepoRoot(repoPath)
	if err != nil {
		return err
	}
	reader, err := gitx.NewReader(root, base)
	if err != nil {
		return err
	}
	snap, err := reader.Read(nil)
	if err != nil {
		return fmt.Errorf("read repository: %w", err)
	}

	saved := prefs.Load(root)
	savedTheme := saved.Theme
	if savedTheme == "" {
		savedTheme = cfg.Theme
	}
	th := theme.Resolve(themeName, savedTheme)
	if themeName != "" && themeName != saved.Theme {
		// An explicit choice becomes the repo's saved preference.
		if err := prefs.SaveTheme(root, th.Name); err != nil {
			log.Warn("save theme preference", "err", err)
		}
	}
	th, err = theme.LoadRepoOverrides(th, root)
	if err != nil {
		return err
	}

	log.Info("starting", "repo", root, "base", reader.BaseBranch, "version", version)
	return ui.Run(ui.Options{
		Reader:       reader,
		Initial:      snap,
		Theme:        th,
		EditorCmd:    editor.ResolveCommand(cfg.Editor),
		SplitPercent: saved.SplitPercent,
		Poll:         pollConfig(cfg.Poll),
		Log:          log,
	})
}

// pollConfig maps the config file onto the watcher's tuning. An absent
// heartbeat key means the default cadence; an explicit "0s" disables
// heartbeats entirely.
func pollConfig(p config.Poll) watcher.Config {
	cfg := watcher.Config{
		Interval:         p.Interval.Duration,
		FailureThreshold: p.FailureThreshold,
		Heartbeat:        watcher.DefaultHeartbeat,
	}
	if p.Heartbeat != nil {
		cfg.Heartbeat = p.Heartbeat.Duration
	}
	return cfg
}
