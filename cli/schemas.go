package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/focusmcp/focusmcp/pkg/schemagen"
)

func SchemasCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Write JSON schemas for focusmcp.yaml and batch files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			absOutDir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("failed to resolve output directory: %w", err)
			}
			paths, err := schemagen.NewGenerator().Generate(cmd.Context(), absOutDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "./schemas", "Output directory for generated schemas")
	return cmd
}
