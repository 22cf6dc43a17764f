package cli

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/focusmcp/focusmcp/cli/helpers"
	"github.com/focusmcp/focusmcp/pkg/config"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(
		configShowCmd(),
		configValidateCmd(),
	)
	return cmd
}

// configShowCmd shows the current configuration with source information
func configShowCmd() *cobra.Command {
	var (
		format      string
		showSources bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration values and their sources",
		Long: `Display the effective configuration. With --sources each key reports
whether it came from a CLI flag, the YAML file, the environment or the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager := config.ManagerFromContext(cmd.Context())
			values := flattenConfig(manager.Get())
			var sources map[string]config.SourceType
			if showSources {
				sources = make(map[string]config.SourceType, len(values))
				for key := range values {
					sources[key] = manager.Service.GetSource(key)
				}
			}
			return formatConfigOutput(cmd.OutOrStdout(), values, sources, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (json, yaml, table)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Show configuration sources")
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager := config.ManagerFromContext(cmd.Context())
			if err := manager.Service.Validate(manager.Get()); err != nil {
				return helpers.NewCliError(helpers.CodeConfig, "configuration is invalid", err.Error())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return err
		},
	}
}

func formatConfigOutput(
	w io.Writer,
	values map[string]any,
	sources map[string]config.SourceType,
	format string,
) error {
	output := map[string]any{"config": values}
	if sources != nil {
		output["sources"] = sources
	}
	switch format {
	case "json":
		return helpers.NewOutputWriter(w).WriteData(output)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case "table":
		return outputTable(w, values, sources)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func outputTable(w io.Writer, values map[string]any, sources map[string]config.SourceType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if sources != nil {
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	} else {
		fmt.Fprintln(tw, "KEY\tVALUE")
	}
	for _, key := range keys {
		if sources != nil {
			fmt.Fprintf(tw, "%s\t%v\t%s\n", key, values[key], sources[key])
			continue
		}
		fmt.Fprintf(tw, "%s\t%v\n", key, values[key])
	}
	return tw.Flush()
}

// flattenConfig maps every leaf to its dotted koanf key.
func flattenConfig(cfg *config.Config) map[string]any {
	result := make(map[string]any)
	if cfg != nil {
		flattenStruct("", reflect.ValueOf(cfg).Elem(), result)
	}
	return result
}

func flattenStruct(prefix string, val reflect.Value, result map[string]any) {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("koanf")
		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fieldVal := val.Field(i)
		switch {
		case field.Type == reflect.TypeOf(time.Duration(0)):
			result[key] = time.Duration(fieldVal.Int()).String()
		case fieldVal.Kind() == reflect.Struct:
			flattenStruct(key, fieldVal, result)
		default:
			result[key] = fieldVal.Interface()
		}
	}
}
