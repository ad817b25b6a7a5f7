package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wardenhq/warden/api/v1beta1/allowlists"
	"github.com/wardenhq/warden/pkg/drift"
	"github.com/wardenhq/warden/pkg/drift/report"
	"github.com/wardenhq/warden/pkg/lockfile"
)

type DriftArgs struct {
	*RootArgs

	Format        string
	LockfilePath  string
	AllowListPath string
	Gates         bool
}

func NewDriftArgs(rootArgs *RootArgs) *DriftArgs {
	return &DriftArgs{RootArgs: rootArgs}
}

func (da *DriftArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&da.Format, "format", "",
		fmt.Sprintf("Output format, one of: %s (default human on a terminal, json otherwise)", report.Formats()))
	cmd.Flags().StringVar(&da.LockfilePath, "lockfile", "", "Path to the lockfile")
	cmd.Flags().StringVar(&da.AllowListPath, "allow-list", "", "Path to the allow-list")
	cmd.Flags().BoolVar(&da.Gates, "gates", false, "Exit non-zero when any drift is found")

	err := cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(report.Formats(), cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewDriftCmd(rootArgs *RootArgs) *cobra.Command {
	da := NewDriftArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "drift [path]",
		Short: "Compare the current bundle against the lockfile and report divergence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			return runDrift(cmd, da, target)
		},
	}
	da.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runDrift(cmd *cobra.Command, da *DriftArgs, target string) error {
	ws, err := openWorkspace(da.ConfigPath, target)
	if err != nil {
		return err
	}

	upstream, err := ws.loadBundle()
	if err != nil {
		return err
	}

	current, overlayRes, err := ws.currentBundle()
	if err != nil {
		return err
	}

	for _, sel := range overlayRes.Unresolved {
		slog.Warn("overlay selector did not resolve", slog.String("selector", sel))
	}

	in := drift.Input{Current: current, Upstream: upstream}
	generatedAt := time.Time{}

	lfPath := da.LockfilePath
	if lfPath == "" {
		lfPath = lockfile.Path(ws.Dir)
	}

	lf, err := lockfile.Load(lfPath)

	switch {
	case err == nil:
		in.Lockfile = lf
		generatedAt = lf.GeneratedAt
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("no lockfile, skipping lockfile checks", slog.String("path", lfPath))
	default:
		return err
	}

	alPath := da.AllowListPath
	if alPath == "" {
		alPath = allowlists.Path(ws.Dir)
	}

	al, err := allowlists.Load(alPath)

	switch {
	case err == nil:
		in.AllowList = al
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("no allow-list", slog.String("path", alPath))
	default:
		return err
	}

	in.RemapPolicy, err = ws.Config.RemapPolicy()
	if err != nil {
		return err
	}

	findings, err := drift.Detect(in)
	if err != nil {
		return err
	}

	format, err := resolveFormat(da.Format)
	if err != nil {
		return err
	}

	err = report.Write(cmd.OutOrStdout(), format, findings, report.Options{GeneratedAt: generatedAt})
	if err != nil {
		return err
	}

	if da.Gates && len(findings) > 0 {
		return &ExitError{
			Code: ExitCodeDrift,
			Err:  fmt.Errorf("drift detected: %d finding(s)", len(findings)),
		}
	}

	return nil
}

// resolveFormat applies the tty default: human output for people, JSON for
// pipes.
func resolveFormat(flagValue string) (report.Format, error) {
	if flagValue != "" {
		return report.ParseFormat(flagValue)
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return report.FormatHuman, nil
	}

	return report.FormatJSON, nil
}
