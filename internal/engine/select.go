/*
PURPOSE:
  Applies the optional model and prompt name filters.

REQUIREMENTS:
  User-specified:
  - A filter that matches nothing is an error, not an empty run.

  Implementation-discovered:
  - Errors match ErrNotFound via errors.Is.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli/run.go

ERROR HANDLING:
  - *NotFoundError with Kind "Model" or "Prompt".

IMPLEMENTATION RULES:
  - Empty filter selects everything in configured order.

USAGE:
  models, err := SelectModels(cfg.Models, "Nova Lite")

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - None.
*/

package engine

import (
	"errors"
	"fmt"

	"github.com/daryltucker/llm-bench/internal/model"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("not found in configuration")

// NotFoundError reports a model or prompt filter with no match.
type NotFoundError struct {
	Kind string // "Model" or "Prompt"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found in configuration", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SelectModels returns all models, or only the one named by filter.
func SelectModels(models []model.ModelSpec, filter string) ([]model.ModelSpec, error) {
	if filter == "" {
		return models, nil
	}
	for _, m := range models {
		if m.Name == filter {
			return []model.ModelSpec{m}, nil
		}
	}
	return nil, &NotFoundError{Kind: "Model", Name: filter}
}

// SelectPrompts returns all prompts, or only the one named by filter.
func SelectPrompts(prompts []model.PromptSpec, filter string) ([]model.PromptSpec, error) {
	if filter == "" {
		return prompts, nil
	}
	for _, p := range prompts {
		if p.Name == filter {
			return []model.PromptSpec{p}, nil
		}
	}
	return nil, &NotFoundError{Kind: "Prompt", Name: filter}
}
