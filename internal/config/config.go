/*
PURPOSE:
  Defines the configuration structure and loading logic for LLM Bench.
  Models, prompts and pricing are loaded once and passed down explicitly.

REQUIREMENTS:
  User-specified:
  - Configure models (with pricing), prompts, region and output directory.
  - Accept the existing models.json / prompts.json documents.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs environment variable overrides (LLM_BENCH_..., OPENAI_...).
  - temperature 0 is a legal value, so absent fields are detected with pointers.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli
  - Dependencies: gopkg.in/yaml.v3, github.com/caarlos0/env

ERROR HANDLING:
  - Returns explicit error if a config file is invalid.
  - A missing default config file falls back to defaults.
  - Validate() names the offending entry.

IMPLEMENTATION RULES:
  - Precedence: flags > env > file > defaults. Flags are applied by the CLI.
  - Defaults should be sensible (eu-central-1, outputs/).

USAGE:
  cfg, err := config.Load("llm_bench.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
  - internal/model/types.go

MAINTENANCE:
  - Update when adding new providers or model parameters.
*/

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/output"
	"github.com/daryltucker/llm-bench/internal/provider"
)

// MaxTokensLimit is the largest max_tokens a provider request can carry (int32 on the wire).
const MaxTokensLimit = math.MaxInt32

const (
	DefaultRegion      = "eu-central-1"
	DefaultOutputDir   = "outputs"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// SearchPaths are tried in order when no --config is given.
var SearchPaths = []string{"llm_bench.yaml", filepath.Join("config", "llm_bench.yaml")}

// AWSConfig holds optional static AWS credentials.
type AWSConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// OpenAIConfig configures OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Config represents the full configuration for LLM Bench.
type Config struct {
	Region      string        `yaml:"region"`
	OutputDir   string        `yaml:"output_dir"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	ModelsFile  string        `yaml:"models_file"`
	PromptsFile string        `yaml:"prompts_file"`
	AWS         AWSConfig     `yaml:"aws"`
	OpenAI      OpenAIConfig  `yaml:"openai"`

	Models  []model.ModelSpec  `yaml:"-"`
	Prompts []model.PromptSpec `yaml:"-"`
}

// EnvOverrides are the environment variables that override file values.
type EnvOverrides struct {
	Region        string        `env:"LLM_BENCH_REGION"`
	OutputDir     string        `env:"LLM_BENCH_OUTPUT_DIR"`
	CallTimeout   time.Duration `env:"LLM_BENCH_CALL_TIMEOUT"`
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
}

type modelEntry struct {
	Name                  string   `yaml:"name" json:"name"`
	Provider              string   `yaml:"provider" json:"provider"`
	ModelID               string   `yaml:"model_id" json:"model_id"`
	Region                string   `yaml:"region" json:"region"`
	MaxTokens             *int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature           *float64 `yaml:"temperature" json:"temperature"`
	InputCostPer1kTokens  float64  `yaml:"input_cost_per_1k_tokens" json:"input_cost_per_1k_tokens"`
	OutputCostPer1kTokens float64  `yaml:"output_cost_per_1k_tokens" json:"output_cost_per_1k_tokens"`
}

type promptEntry struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Prompt      string `yaml:"prompt" json:"prompt"`
}

type fileConfig struct {
	Config  `yaml:",inline"`
	Models  []modelEntry  `yaml:"models"`
	Prompts []promptEntry `yaml:"prompts"`
}

type modelsDocument struct {
	Models []modelEntry `yaml:"models" json:"models"`
}

type promptsDocument struct {
	Prompts []promptEntry `yaml:"prompts" json:"prompts"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Region:    DefaultRegion,
		OutputDir: DefaultOutputDir,
	}
}

// Load reads configuration from a file and applies environment overrides.
// If path is empty, SearchPaths are tried and a missing file yields defaults.
func Load(path string) (*Config, error) {
	data, path, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	fc := fileConfig{Config: *DefaultConfig()}
	if data != nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg := fc.Config
	cfg.Models = toModelSpecs(fc.Models)
	cfg.Prompts = toPromptSpecs(fc.Prompts)

	base := filepath.Dir(path)
	if cfg.ModelsFile != "" {
		if cfg.Models, err = LoadModels(resolve(base, cfg.ModelsFile)); err != nil {
			return nil, err
		}
	}
	if cfg.PromptsFile != "" {
		if cfg.Prompts, err = LoadPrompts(resolve(base, cfg.PromptsFile)); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("failed to read config file: %w", err)
		}
		return data, path, nil
	}
	for _, candidate := range SearchPaths {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, candidate, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil, ".", nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// ApplyEnv overlays environment variables on cfg.
func (c *Config) ApplyEnv() error {
	var ov EnvOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if ov.Region != "" {
		c.Region = ov.Region
	}
	if ov.OutputDir != "" {
		c.OutputDir = ov.OutputDir
	}
	if ov.CallTimeout > 0 {
		c.CallTimeout = ov.CallTimeout
	}
	if ov.OpenAIKey != "" {
		c.OpenAI.APIKey = ov.OpenAIKey
	}
	if ov.OpenAIBaseURL != "" {
		c.OpenAI.BaseURL = ov.OpenAIBaseURL
	}
	return nil
}

// LoadModels reads a {"models": [...]} document.
func LoadModels(path string) ([]model.ModelSpec, error) {
	var doc modelsDocument
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("models configuration: %w", err)
	}
	return toModelSpecs(doc.Models), nil
}

// LoadPrompts reads a {"prompts": [...]} document.
func LoadPrompts(path string) ([]model.PromptSpec, error) {
	var doc promptsDocument
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("prompts configuration: %w", err)
	}
	return toPromptSpecs(doc.Prompts), nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, out)
	} else {
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func toModelSpecs(entries []modelEntry) []model.ModelSpec {
	specs := make([]model.ModelSpec, 0, len(entries))
	for _, e := range entries {
		spec := model.ModelSpec{
			Name:                  e.Name,
			Provider:              e.Provider,
			ModelID:               e.ModelID,
			Region:                e.Region,
			MaxTokens:             DefaultMaxTokens,
			Temperature:           DefaultTemperature,
			InputCostPer1kTokens:  e.InputCostPer1kTokens,
			OutputCostPer1kTokens: e.OutputCostPer1kTokens,
		}
		if spec.Provider == "" {
			spec.Provider = provider.Bedrock
		}
		if e.MaxTokens != nil {
			spec.MaxTokens = *e.MaxTokens
		}
		if e.Temperature != nil {
			spec.Temperature = *e.Temperature
		}
		specs = append(specs, spec)
	}
	return specs
}

func toPromptSpecs(entries []promptEntry) []model.PromptSpec {
	specs := make([]model.PromptSpec, 0, len(entries))
	for _, e := range entries {
		specs = append(specs, model.PromptSpec(e))
	}
	return specs
}

// Validate checks the loaded models and prompts.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return errors.New("no models configured")
	}

	var errs []error
	names := make(map[string]bool)
	slugs := make(map[string]string)
	for i, m := range c.Models {
		label := fmt.Sprintf("model #%d", i+1)
		if m.Name != "" {
			label = fmt.Sprintf("model '%s'", m.Name)
		}
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		case names[m.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		names[m.Name] = true
		if other, ok := slugs[output.Slug(m.Name)]; ok && other != m.Name {
			errs = append(errs, fmt.Errorf("%s: file name collides with model '%s'", label, other))
		} else if m.Name != "" {
			slugs[output.Slug(m.Name)] = m.Name
		}
		if m.ModelID == "" {
			errs = append(errs, fmt.Errorf("%s: model_id is required", label))
		}
		if m.MaxTokens <= 0 || m.MaxTokens > MaxTokensLimit {
			errs = append(errs, fmt.Errorf("%s: max_tokens must be between 1 and %d", label, MaxTokensLimit))
		}
		if m.InputCostPer1kTokens < 0 || m.OutputCostPer1kTokens < 0 {
			errs = append(errs, fmt.Errorf("%s: prices must not be negative", label))
		}
	}

	prompts := make(map[string]bool)
	promptSlugs := make(map[string]string)
	for i, p := range c.Prompts {
		label := fmt.Sprintf("prompt #%d", i+1)
		if p.Name != "" {
			label = fmt.Sprintf("prompt '%s'", p.Name)
		}
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		case prompts[p.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		prompts[p.Name] = true
		if other, ok := promptSlugs[output.Slug(p.Name)]; ok && other != p.Name {
			errs = append(errs, fmt.Errorf("%s: directory name collides with prompt '%s'", label, other))
		} else if p.Name != "" {
			promptSlugs[output.Slug(p.Name)] = p.Name
		}
		if strings.TrimSpace(p.Prompt) == "" {
			errs = append(errs, fmt.Errorf("%s: prompt text is required", label))
		}
	}
	return errors.Join(errs...)
}
