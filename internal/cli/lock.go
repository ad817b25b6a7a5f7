package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/pkg/lockfile"
)

type LockArgs struct {
	*RootArgs

	Mode         string
	LockfilePath string
}

func NewLockArgs(rootArgs *RootArgs) *LockArgs {
	return &LockArgs{RootArgs: rootArgs}
}

func (la *LockArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&la.Mode, "mode", "strict", "Governance mode recorded in the lockfile")
	cmd.PersistentFlags().StringVar(&la.LockfilePath, "lockfile", "", "Path to the lockfile")
}

func NewLockCmd(rootArgs *RootArgs) *cobra.Command {
	la := NewLockArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Manage the approved lockfile",
	}
	la.AddFlags(cmd)
	cmd.AddCommand(
		newLockInitCmd(la),
		newLockGenerateCmd(la),
	)

	bindEnvVars(cmd)

	return cmd
}

func newLockInitCmd(la *LockArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an empty lockfile for a new project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(la.ConfigPath, ".")
			if err != nil {
				return err
			}

			var lf *lockfile.Lockfile

			if la.LockfilePath == "" {
				lf, err = lockfile.CreateEmpty(ws.Dir, la.Mode)
			} else {
				lf, err = lockfile.New(la.Mode, nil)
				if err == nil {
					err = lf.Write(la.LockfilePath)
				}
			}

			if err != nil {
				return err
			}

			slog.Info("initialized lockfile",
				slog.String("path", la.path(ws)),
				slog.String("bundle_hash", lf.BundleHash),
			)

			return nil
		},
	}
}

func newLockGenerateCmd(la *LockArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Record the merged bundle in the lockfile",
		Long: `Record the merged bundle in the lockfile.

Hashes are taken before overlays apply. The lockfile approves the shared
canonical sources; author-local overrides are audited by the remap policy
instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(la.ConfigPath, ".")
			if err != nil {
				return err
			}

			merged, err := ws.loadBundle()
			if err != nil {
				return err
			}

			lf, err := lockfile.Generate(merged, la.Mode)
			if err != nil {
				return err
			}

			path := la.path(ws)

			err = lf.Write(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "locked %d rules (bundle %s)\n", len(lf.Rules), lf.BundleHash)

			return nil
		},
	}
}

func (la *LockArgs) path(ws *workspace) string {
	if la.LockfilePath != "" {
		return la.LockfilePath
	}

	return lockfile.Path(ws.Dir)
}
