/*
PURPOSE:
  Defines the root Cobra command for the LLM Bench CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - .env must be loaded before config so env overrides see it.
  - Logger is configured once, before any subcommand runs.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/llm-bench/main.go
  - Calls: Child commands (run, list-models, list-prompts)
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - A missing default .env is not an error; a missing --env-file is.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/llm-bench/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-bench/internal/config"
	"github.com/daryltucker/llm-bench/internal/output"
)

const defaultEnvFile = ".env"

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile  string
	envFile  string
	logLevel string
	logJSON  bool

	rootCmd = &cobra.Command{
		Use:   "llm-bench",
		Short: "Concurrent load testing and cost analysis for LLM endpoints",
		Long: `A benchmarking tool for hosted LLMs (AWS Bedrock and OpenAI-compatible APIs).
Fires concurrent calls per model and prompt, then reports success rates,
latency, throughput, token usage, cost and an error breakdown.
Use 'run --help' for benchmark options.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(envFile); err != nil {
				return err
			}
			return output.Configure(os.Stdout, logLevel, logJSON)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./llm_bench.yaml or ./config/llm_bench.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default is ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
