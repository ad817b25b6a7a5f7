package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func NewExportCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [name...]",
		Short: "Run configured exporters against the finalized bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootArgs.ConfigPath, ".")
			if err != nil {
				return err
			}

			registry, err := ws.Config.ExporterRegistry()
			if err != nil {
				return err
			}

			if len(registry.Names()) == 0 {
				return fmt.Errorf("no exporters configured")
			}

			current, overlayRes, err := ws.currentBundle()
			if err != nil {
				return err
			}

			for _, sel := range overlayRes.Unresolved {
				slog.Warn("overlay selector did not resolve", slog.String("selector", sel))
			}

			results, err := registry.Run(cmd.Context(), current.Sections, args...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0

			for _, r := range results {
				status := "ok"
				if !r.Success {
					status = "failed"
					failed++
				}

				fmt.Fprintf(out, "%s: %s", r.Name, status)

				if len(r.FilesWritten) > 0 {
					fmt.Fprintf(out, " (%s)", strings.Join(r.FilesWritten, ", "))
				}

				fmt.Fprintln(out)

				for _, w := range r.Warnings {
					fmt.Fprintf(out, "  warning: %s\n", w)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d exporters failed", failed, len(results))
			}

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
