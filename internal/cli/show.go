package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/pkg/yaml"
)

func NewShowCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Print the merged, overlay-applied bundle as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			ws, err := openWorkspace(rootArgs.ConfigPath, target)
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

			enc := yaml.NewEncoder(cmd.OutOrStdout())

			err = enc.Encode(current)
			if err != nil {
				return fmt.Errorf("encode bundle: %w", err)
			}

			return enc.Close()
		},
	}

	bindEnvVars(cmd)

	return cmd
}
