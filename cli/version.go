package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focusmcp/focusmcp/cli/helpers"
	"github.com/focusmcp/focusmcp/pkg/version"
)

func VersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return helpers.NewOutputWriter(cmd.OutOrStdout()).WriteData(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
