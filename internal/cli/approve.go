package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/api/v1beta1/allowlists"
)

type ApproveArgs struct {
	*RootArgs

	By            string
	AllowListPath string
}

func NewApproveArgs(rootArgs *RootArgs) *ApproveArgs {
	return &ApproveArgs{RootArgs: rootArgs}
}

func (aa *ApproveArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&aa.By, "by", "", "Approver identity recorded in the allow-list")
	cmd.Flags().StringVar(&aa.AllowListPath, "allow-list", "", "Path to the allow-list")

	err := cmd.MarkFlagRequired("by")
	if err != nil {
		panic(err)
	}
}

func NewApproveCmd(rootArgs *RootArgs) *cobra.Command {
	aa := NewApproveArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "approve <value>",
		Short: "Record a bundle hash as team-approved in the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApprove(cmd, aa, args[0])
		},
	}
	aa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runApprove(cmd *cobra.Command, aa *ApproveArgs, value string) error {
	ws, err := openWorkspace(aa.ConfigPath, ".")
	if err != nil {
		return err
	}

	path := aa.AllowListPath
	if path == "" {
		path = allowlists.Path(ws.Dir)
	}

	al, err := allowlists.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		al = allowlists.New()
	} else if err != nil {
		return err
	}

	if al.IsApproved(value) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already approved\n", value)

		return nil
	}

	approved := al.Approve(value, aa.By)

	err = al.Write(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "approved %s by %s at %s\n",
		approved.Value, approved.ApprovedBy, approved.ApprovedAt)

	return nil
}
