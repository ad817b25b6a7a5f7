package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/pkg/overlay"
)

func NewOverlayCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Inspect the configured overlays",
	}
	cmd.AddCommand(newOverlayCheckCmd(rootArgs))

	bindEnvVars(cmd)

	return cmd
}

func newOverlayCheckCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List overlays whose selectors no longer resolve",
		Long: `A stale overlay is one whose selector no longer resolves against the
current bundle, usually after an upstream rename or removal. Staleness is
about resolvability, not content: an overlay over an edited section is not
stale as long as its selector still finds the section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(rootArgs.ConfigPath, ".")
			if err != nil {
				return err
			}

			b, err := ws.loadBundle()
			if err != nil {
				return err
			}

			stale := overlay.FindStale(ws.Config.Overrides(), b)

			out := cmd.OutOrStdout()

			if len(stale) == 0 {
				fmt.Fprintf(out, "all %d overlays resolve\n", len(ws.Config.Overrides()))

				return nil
			}

			for _, sel := range stale {
				fmt.Fprintf(out, "stale: %s\n", sel)
			}

			fmt.Fprintf(out, "%d of %d overlays are stale\n", len(stale), len(ws.Config.Overrides()))

			return nil
		},
	}
}
