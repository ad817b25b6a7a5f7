// Package cli wires warden's commands. Everything below this package
// returns errors; only this package maps them to process exit codes.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/api/v1beta1/bundleconfigs"
	"github.com/wardenhq/warden/pkg/log"
)

const (
	cmdName = "warden"
	cmdDesc = `Keeps a rule bundle, its approved lockfile, and local overlays in agreement.`

	cmdExamples = `  # Report drift against the lockfile:
  warden drift

  # Fail CI when any drift exists:
  warden drift --gates --format sarif

  # Reconcile externally edited copies and reapply overlays:
  warden sync ./exports

  # Record the current bundle as approved:
  warden lock generate

  # Approve a bundle hash on behalf of the team:
  warden approve 4a5ac9... --by reviewer@example.com`
)

type RootArgs struct {
	LogLevel    string
	LogFormat   string
	ConfigPath  string
	WriteConfig bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the warden configuration file")
	cmd.PersistentFlags().
		BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration file and exit")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if args.WriteConfig {
				return writeDefaultConfig(args)
			}

			return cmd.Help()
		},
	}

	args.AddFlags(cmd)
	cmd.AddCommand(
		NewDriftCmd(args),
		NewSyncCmd(args),
		NewLockCmd(args),
		NewApproveCmd(args),
		NewOverlayCmd(args),
		NewShowCmd(args),
		NewExportCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		err := log.SetDefaultWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		// Pin the resolved logger so context-aware call sites keep it even
		// when the process default changes later.
		cmd.SetContext(log.WithLogger(cmd.Context(), slog.Default()))

		return nil
	}
}

func writeDefaultConfig(ra *RootArgs) error {
	path := ra.ConfigPath
	if path == "" {
		path = bundleconfigs.DefaultNames[0]
	}

	err := bundleconfigs.WriteDefault(path, false)
	if err != nil {
		return err
	}

	slog.Info("wrote default configuration", slog.String("path", path))

	return nil
}
