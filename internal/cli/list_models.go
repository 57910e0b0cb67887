/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Shows what a run would benchmark, with pricing.

REQUIREMENTS:
  User-specified:
  - List available models.

  Implementation-discovered:
  - Useful validation step before full run (names for --specific-model).

ARCHITECTURE INTEGRATION:
  - Uses: internal/config

ERROR HANDLING:
  - Returns config load errors.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  llm-bench list-models --config llm_bench.yaml

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/config/config.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-bench/internal/provider"
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List configured models with provider and pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cfg.Models) == 0 {
			fmt.Fprintln(out, "No models configured")
			return nil
		}

		for _, m := range cfg.Models {
			region := m.Region
			if region == "" {
				region = cfg.Region
			}
			fmt.Fprintf(out, "- %s\n", m.Name)
			fmt.Fprintf(out, "    provider:    %s\n", m.Provider)
			fmt.Fprintf(out, "    model_id:    %s\n", m.ModelID)
			if m.Provider == provider.Bedrock {
				fmt.Fprintf(out, "    region:      %s\n", region)
			}
			fmt.Fprintf(out, "    max_tokens:  %d\n", m.MaxTokens)
			fmt.Fprintf(out, "    temperature: %.2f\n", m.Temperature)
			fmt.Fprintf(out, "    pricing:     $%g in / $%g out per 1k tokens\n", m.InputCostPer1kTokens, m.OutputCostPer1kTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
}
