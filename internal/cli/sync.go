package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/conflict"
)

type SyncArgs struct {
	*RootArgs

	ShowConflicts bool
}

func NewSyncArgs(rootArgs *RootArgs) *SyncArgs {
	return &SyncArgs{RootArgs: rootArgs}
}

func (sa *SyncArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&sa.ShowConflicts, "show-conflicts", false, "Print unified diffs for each conflict")
}

func NewSyncCmd(rootArgs *RootArgs) *cobra.Command {
	sa := NewSyncArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "sync [path]",
		Short: "Reconcile externally edited copies, then reapply overlays",
		Long: `Sync scans a directory of exported copies for sections that diverge from
each other, resolves each conflict by most recent modification (keeping every
losing copy untouched), and then reloads the canonical sources with overlays
applied. Conflicts are reported, never merged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			return runSync(cmd, sa, target)
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runSync(cmd *cobra.Command, sa *SyncArgs, target string) error {
	ws, err := openWorkspace(sa.ConfigPath, target)
	if err != nil {
		return err
	}

	candidates, err := collectCandidates(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	conflicts := conflict.Resolve(candidates)
	for _, c := range conflicts {
		fmt.Fprintf(out, "conflict %s: %d copies diverge\n", c.Fingerprint, len(c.Losers)+1)
		fmt.Fprintf(out, "  keeping %s (modified %s)\n", c.Winner.Path, humanize.Time(c.Winner.ModTime))

		for _, loser := range c.Losers {
			fmt.Fprintf(out, "  retained %s (modified %s)\n", loser.Path, humanize.Time(loser.ModTime))

			if sa.ShowConflicts {
				fmt.Fprintln(out, c.Diff(loser))
			}
		}
	}

	current, overlayRes, err := ws.currentBundle()
	if err != nil {
		return err
	}

	for _, sel := range overlayRes.Unresolved {
		slog.Warn("overlay selector did not resolve", slog.String("selector", sel))
	}

	fmt.Fprintf(out, "synced %d sections (%d overlays applied, %d conflicts)\n",
		len(current.Sections), overlayRes.Applied, len(conflicts))

	return nil
}

// collectCandidates parses every markdown file under dir into conflict
// candidates, one per section.
func collectCandidates(dir string) ([]conflict.Candidate, error) {
	var candidates []conflict.Candidate

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".markdown" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		sections, err := bundle.ParseMarkdown(path, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, s := range sections {
			candidates = append(candidates, conflict.Candidate{
				Path:        path,
				Fingerprint: s.Fingerprint(),
				ModTime:     info.ModTime(),
				Content:     s.Content,
			})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	return candidates, nil
}
