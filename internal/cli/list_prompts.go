/*
PURPOSE:
  Defines the 'list-prompts' subcommand.

REQUIREMENTS:
  User-specified:
  - List available prompts.

  Implementation-discovered:
  - Preview collapses whitespace so multi-line prompts fit one line.

ARCHITECTURE INTEGRATION:
  - Uses: internal/config

ERROR HANDLING:
  - Returns config load errors.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  llm-bench list-prompts

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/cli/list_models.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const promptPreviewLen = 80

var listPromptsCmd = &cobra.Command{
	Use:   "list-prompts",
	Short: "List configured prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cfg.Prompts) == 0 {
			fmt.Fprintln(out, "No prompts configured")
			return nil
		}

		for _, p := range cfg.Prompts {
			fmt.Fprintf(out, "- %s: %s\n", p.Name, p.Description)
			fmt.Fprintf(out, "    %s\n", preview(p.Prompt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listPromptsCmd)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > promptPreviewLen {
		return string(r[:promptPreviewLen-3]) + "..."
	}
	return text
}
