/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the full benchmark suite.

REQUIREMENTS:
  User-specified:
  - Run the benchmarks with a configurable number of concurrent calls.
  - Filter to one model or one prompt, or benchmark a literal custom prompt.
  - Validate credentials before any call is made.

  Implementation-discovered:
  - Need to load config first, then apply flag overrides.
  - Very large call counts get a confirmation prompt (--yes skips it).
  - Ctrl-C stops after the current batch; finished runs are still saved.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine (Runner, AggregateByModel, Summarize)
  - Uses: internal/config, internal/provider, internal/output

ERROR HANDLING:
  - Returns error if config load/validation, filters or credentials fail.
  - No results: logs and exits cleanly without writing anything.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Credentials -> Runner -> Save -> Summary.

USAGE:
  llm-bench run -n 50 --specific-model "Nova Lite"

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/cli/root.go
  - internal/cli/providers.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-bench/internal/config"
	"github.com/daryltucker/llm-bench/internal/cost"
	"github.com/daryltucker/llm-bench/internal/engine"
	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/output"
)

const (
	confirmThreshold        = 1000
	customPromptName        = "custom"
	customPromptDescription = "Custom prompt provided via CLI"
)

var (
	numberOfCalls  int
	specificModel  string
	specificPrompt string
	customPrompt   string
	regionOverride string
	outputOverride string
	callTimeout    time.Duration
	assumeYes      bool
	noProgress     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark suite",
	Long: `Executes the benchmark suite against the configured models.
For every (prompt, model) pair the requested number of calls is fired concurrently:
1. Validation: config, filters and provider credentials are checked up front.
2. Benchmarking: one concurrent batch per pair, prompts outer, models inner.
3. Reporting: per-prompt CSV and answers, overall CSV, runs.jsonl and metrics.prom
   are written to a timestamped directory under the output directory.`,
	Example: `  # Run every prompt against every model with defaults (100 calls each)
  llm-bench run

  # 20 calls against one model and one prompt
  llm-bench run -n 20 --specific-model "Nova Lite" --specific-prompt short

  # Benchmark a literal prompt in another region
  llm-bench run --prompt "Summarize the plot of Hamlet." --region us-east-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if numberOfCalls <= 0 {
			return fmt.Errorf("number of calls must be greater than 0, got %d", numberOfCalls)
		}

		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// 2. Selection
		models, err := engine.SelectModels(cfg.Models, specificModel)
		if err != nil {
			return err
		}
		custom, prompts, err := selectPrompts(cfg.Prompts)
		if err != nil {
			return err
		}

		if numberOfCalls > confirmThreshold && !assumeYes {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d calls per model and prompt is a large load and may incur significant cost.\n", numberOfCalls)
			if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Continue?") {
				output.Logger.Info("Benchmark cancelled")
				return nil
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// 3. Credentials
		reg, err := buildRegistry(ctx, cfg, models)
		if err != nil {
			return err
		}
		if err := reg.ValidateCredentials(ctx, models); err != nil {
			return fmt.Errorf("credential validation failed: %w", err)
		}
		output.Logger.Info("Credentials validated", "providers", strings.Join(reg.Tags(), ","))

		// 4. Execution
		sink := &runSink{base: cfg.OutputDir}
		defer sink.Close()

		runner := engine.NewRunner(reg, cost.TableFromModels(cfg.Models), cfg.CallTimeout)
		runner.OnRun = sink.record
		if !noProgress {
			runner.Progress = newProgressBar(cmd.ErrOrStderr())
		}

		output.Logger.Info("Starting benchmark suite",
			"models", len(models),
			"prompts", len(prompts),
			"calls_per_pair", numberOfCalls,
			"region", cfg.Region,
		)

		start := time.Now()
		var report model.Report
		var runErr error
		if custom {
			var runs []model.BenchmarkRun
			runs, runErr = runner.RunSinglePrompt(ctx, models, prompts[0], "", numberOfCalls)
			report = model.Report{All: runs, ByPrompt: []model.PromptResults{{Prompt: prompts[0], Runs: runs}}}
		} else {
			report, runErr = runner.RunMultiPrompt(ctx, models, prompts, "", "", numberOfCalls)
		}
		elapsed := time.Since(start)

		// 5. Reporting
		if len(report.All) == 0 {
			output.Logger.Info("No benchmark results to save")
			return runErr
		}

		dir, err := sink.dir()
		if err != nil {
			return err
		}
		aggregated := engine.AggregateByModel(report.All)
		if err := dir.SaveReport(report, aggregated); err != nil {
			return err
		}
		output.Logger.Info("Results saved", "dir", dir.Root)

		out := cmd.OutOrStdout()
		output.PrintSummaryTable(out, aggregated)
		output.PrintOverallSummary(out, engine.Summarize(len(report.ByPrompt), aggregated), elapsed)

		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&numberOfCalls, "number-of-calls", "n", 100, "Number of concurrent calls per model and prompt")
	runCmd.Flags().StringVar(&specificModel, "specific-model", "", "Test only one model (name from config)")
	runCmd.Flags().StringVar(&specificPrompt, "specific-prompt", "", "Test only one prompt (name from config)")
	runCmd.Flags().StringVar(&customPrompt, "prompt", "", "Custom prompt text (replaces configured prompts)")
	runCmd.Flags().StringVar(&regionOverride, "region", "", "AWS region for Bedrock (default eu-central-1)")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Base output directory for results")
	runCmd.Flags().DurationVar(&callTimeout, "call-timeout", 0, "Per-call timeout, e.g. 60s (0 = none)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation for more than 1000 calls")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
}

func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("region") {
		cfg.Region = regionOverride
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputOverride
	}
	if flags.Changed("call-timeout") {
		cfg.CallTimeout = callTimeout
	}
}

// selectPrompts reports whether the custom prompt is used and returns the prompts to run.
func selectPrompts(configured []model.PromptSpec) (bool, []model.PromptSpec, error) {
	if customPrompt != "" {
		if specificPrompt != "" {
			output.Logger.Warn("--specific-prompt is ignored when --prompt is given", "specific_prompt", specificPrompt)
		}
		return true, []model.PromptSpec{{
			Name:        customPromptName,
			Description: customPromptDescription,
			Prompt:      customPrompt,
		}}, nil
	}

	if len(configured) == 0 {
		return false, nil, fmt.Errorf("no prompts configured; add prompts to the configuration or use --prompt")
	}
	prompts, err := engine.SelectPrompts(configured, specificPrompt)
	return false, prompts, err
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func newProgressBar(w io.Writer) func(model.ModelSpec, model.PromptSpec, int) engine.Progress {
	return func(m model.ModelSpec, p model.PromptSpec, calls int) engine.Progress {
		return progressbar.NewOptions(calls,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(fmt.Sprintf("%s / %s", m.Name, p.Name)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
}

// runSink streams finished runs to runs.jsonl, creating the report directory
// on first use so a run that produces nothing writes nothing.
type runSink struct {
	base   string
	report *output.ReportDir
	runs   *output.JSONWriter
}

func (s *runSink) dir() (*output.ReportDir, error) {
	if s.report != nil {
		return s.report, nil
	}
	dir, err := output.NewReportDir(s.base, time.Now())
	if err != nil {
		return nil, err
	}
	s.report = dir
	return dir, nil
}

func (s *runSink) record(run model.BenchmarkRun) {
	if s.runs == nil {
		dir, err := s.dir()
		if err != nil {
			output.Logger.Error("Failed to create output directory", "error", err)
			return
		}
		w, err := output.NewJSONWriter(dir.Path(output.RunsJSONL))
		if err != nil {
			output.Logger.Error("Failed to open runs log", "error", err)
			return
		}
		s.runs = w
	}
	if err := s.runs.Write(run); err != nil {
		output.Logger.Error("Failed to append run", "model", run.ModelName, "prompt", run.PromptInfo.Name, "error", err)
	}
}

func (s *runSink) Close() error {
	if s.runs == nil {
		return nil
	}
	return s.runs.Close()
}
