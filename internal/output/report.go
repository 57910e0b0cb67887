/*
PURPOSE:
  Lays out the timestamped report directory and writes every report file.

REQUIREMENTS:
  User-specified:
  - <output_dir>/<YYYYMMDD_HHMMSS>/ with one directory per prompt.
  - Overall CSV, per-prompt CSV, answers and prompt info.

  Implementation-discovered:
  - Names are slugged for paths; config rejects colliding slugs.
  - metrics.prom written next to the CSVs.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Uses: csv.go, json.go, prometheus.go

ERROR HANDLING:
  - Returns the first write failure; later files are not attempted.

IMPLEMENTATION RULES:
  - Only this file knows the directory layout.

USAGE:
  dir, _ := NewReportDir(cfg.OutputDir, time.Now())
  err := dir.SaveReport(report, aggregated)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Update the constants when adding a report file.
*/

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/daryltucker/llm-bench/internal/model"
)

// File names inside a report directory.
const (
	OverallCSV       = "results_overall.csv"
	PromptInfoJSON   = "prompt_info.json"
	PromptResultsCSV = "prompt_results.csv"
	RunsJSONL        = "runs.jsonl"
	MetricsProm      = "metrics.prom"
)

// ReportDir is one timestamped output directory.
type ReportDir struct {
	Root string
}

// NewReportDir creates <base>/<YYYYMMDD_HHMMSS>.
func NewReportDir(base string, now time.Time) (*ReportDir, error) {
	root := filepath.Join(base, now.Format("20060102_150405"))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ReportDir{Root: root}, nil
}

// Path joins name onto the report root.
func (d *ReportDir) Path(name ...string) string {
	return filepath.Join(append([]string{d.Root}, name...)...)
}

// Slug makes a name safe for use as a path element.
func Slug(name string) string {
	return strings.NewReplacer(" ", "-", "/", "-").Replace(name)
}

type answers struct {
	ModelName  string              `json:"model_name"`
	RunID      string              `json:"run_id"`
	Timestamp  time.Time           `json:"timestamp"`
	PromptInfo model.PromptSpec    `json:"prompt_info"`
	Responses  []model.CallOutcome `json:"responses"`
}

// SavePromptResults writes the prompt directory: prompt info, one CSV row per
// model and one answers file per model.
func (d *ReportDir) SavePromptResults(pr model.PromptResults) (err error) {
	dir := d.Path(Slug(pr.Prompt.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompt directory: %w", err)
	}

	if err := WriteJSONFile(filepath.Join(dir, PromptInfoJSON), pr.Prompt); err != nil {
		return err
	}

	if len(pr.Runs) == 0 {
		return nil
	}

	csvw, err := NewCSVWriter(filepath.Join(dir, PromptResultsCSV))
	if err != nil {
		return fmt.Errorf("failed to create prompt results: %w", err)
	}
	defer func() {
		if cerr := csvw.Close(); err == nil {
			err = cerr
		}
	}()

	for _, run := range pr.Runs {
		if err := csvw.WriteRun(run.ModelName, run.Metrics); err != nil {
			return fmt.Errorf("failed to write prompt results: %w", err)
		}

		path := filepath.Join(dir, "answers_"+Slug(run.ModelName)+".json")
		if err := WriteJSONFile(path, answers{
			ModelName:  run.ModelName,
			RunID:      run.RunID,
			Timestamp:  run.Timestamp,
			PromptInfo: run.PromptInfo,
			Responses:  run.Responses,
		}); err != nil {
			return err
		}
	}
	return nil
}

// SaveOverall writes the aggregated results CSV.
func (d *ReportDir) SaveOverall(aggregated []model.AggregatedModelMetrics) (err error) {
	if len(aggregated) == 0 {
		return nil
	}

	csvw, err := NewCSVWriter(d.Path(OverallCSV))
	if err != nil {
		return fmt.Errorf("failed to create overall results: %w", err)
	}
	defer func() {
		if cerr := csvw.Close(); err == nil {
			err = cerr
		}
	}()

	for _, m := range aggregated {
		if err := csvw.WriteAggregate(m); err != nil {
			return fmt.Errorf("failed to write overall results: %w", err)
		}
	}
	return nil
}

// SaveReport writes every prompt directory, the overall CSV and the
// Prometheus textfile.
func (d *ReportDir) SaveReport(report model.Report, aggregated []model.AggregatedModelMetrics) error {
	for _, pr := range report.ByPrompt {
		if err := d.SavePromptResults(pr); err != nil {
			return err
		}
		Logger.Info("Saved prompt results", "prompt", pr.Prompt.Name, "dir", d.Path(Slug(pr.Prompt.Name)))
	}
	if err := d.SaveOverall(aggregated); err != nil {
		return err
	}
	if err := WritePrometheus(d.Path(MetricsProm), report.All, aggregated); err != nil {
		return err
	}
	Logger.Info("Saved overall results", "path", d.Path(OverallCSV))
	return nil
}
