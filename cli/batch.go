package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/focusmcp/focusmcp/cli/helpers"
	"github.com/focusmcp/focusmcp/engine/batch"
	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

func BatchCmd() *cobra.Command {
	var prettyOutput bool
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Create tasks and projects from a JSON or YAML file",
		Long: `Run a list of items through the batch engine, the same way the
batch_create_items tool does. The file holds either a list of items or an
object with an "items" list; use "-" to read standard input.`,
		Example: `  focusmcp batch plan.yaml
  cat plan.json | focusmcp batch -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := readSpecs(args[0], cmd.InOrStdin())
			if err != nil {
				return helpers.NewCliError(helpers.CodeInput, "failed to read batch file", err.Error()).
					WithContext("file", args[0])
			}
			out := helpers.NewOutputWriter(cmd.OutOrStdout())
			if cmd.Flags().Changed("pretty") {
				out.WithPretty(prettyOutput)
			}
			return runBatch(cmd.Context(), specs, out)
		},
	}
	cmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Indent the result even when not writing to a terminal")
	cmd.Flags().Duration("item-timeout", 0, "Per-item timeout (0 disables it)")
	cmd.Flags().Int("max-items", 500, "Maximum items per batch")
	return cmd
}

func runBatch(ctx context.Context, specs []batch.ItemSpec, out *helpers.OutputWriter) error {
	a, err := newApp(ctx, config.FromContext(ctx))
	if err != nil {
		return err
	}
	return executeBatch(ctx, a.batch, specs, out)
}

func executeBatch(ctx context.Context, runner *batch.Engine, specs []batch.ItemSpec, out *helpers.OutputWriter) error {
	result := runner.RunSpecs(ctx, specs)
	if err := out.WriteData(result); err != nil {
		return err
	}
	if !result.Success {
		logger.FromContext(ctx).Debug("Batch failed", "error", result.Error)
		return helpers.NewCliError(helpers.CodeBatchFailed, "no item was created", result.Error).
			WithContext("items", len(specs))
	}
	return nil
}

// batchFile is the object form of a batch file.
type batchFile struct {
	Items []batch.ItemSpec `json:"items" yaml:"items"`
}

func readSpecs(path string, stdin io.Reader) ([]batch.ItemSpec, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, err
	}
	return decodeSpecs(data, strings.ToLower(filepath.Ext(path)))
}

// decodeSpecs accepts a list of items or {"items": [...]}, as JSON for
// .json files and YAML otherwise.
func decodeSpecs(data []byte, ext string) ([]batch.ItemSpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("batch file is empty")
	}
	unmarshal := yaml.Unmarshal
	if ext == ".json" {
		unmarshal = json.Unmarshal
	}
	if trimmed[0] == '[' || (ext != ".json" && trimmed[0] == '-') {
		var specs []batch.ItemSpec
		if err := unmarshal(trimmed, &specs); err != nil {
			return nil, fmt.Errorf("failed to parse items: %w", err)
		}
		return specs, nil
	}
	var file batchFile
	if err := unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	if file.Items == nil {
		return nil, fmt.Errorf("batch file has no items")
	}
	return file.Items, nil
}
