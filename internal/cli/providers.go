/*
PURPOSE:
  Builds the provider registry for the models being benchmarked.

REQUIREMENTS:
  User-specified:
  - Only providers in use are constructed.

  Implementation-discovered:
  - Unknown provider tags rejected before any call.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Uses: internal/provider/{bedrock,openai}

ERROR HANDLING:
  - Returns SDK config errors and unsupported provider errors.

IMPLEMENTATION RULES:
  - Add a case here for each new provider family.

USAGE:
  reg, err := buildRegistry(ctx, cfg, models)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/provider/provider.go

MAINTENANCE:
  - Update when adding a provider.
*/

package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daryltucker/llm-bench/internal/config"
	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
	"github.com/daryltucker/llm-bench/internal/provider/bedrock"
	"github.com/daryltucker/llm-bench/internal/provider/openai"
)

// buildRegistry creates invokers only for the provider families used by models.
func buildRegistry(ctx context.Context, cfg *config.Config, models []model.ModelSpec) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	for _, tag := range providerTags(models) {
		switch tag {
		case provider.Bedrock:
			inv, err := bedrock.New(ctx, bedrock.Options{
				Region:          cfg.Region,
				AccessKeyID:     cfg.AWS.AccessKeyID,
				SecretAccessKey: cfg.AWS.SecretAccessKey,
				SessionToken:    cfg.AWS.SessionToken,
			})
			if err != nil {
				return nil, err
			}
			reg.Register(tag, inv)
		case provider.OpenAI:
			reg.Register(tag, openai.New(openai.Options{
				BaseURL: cfg.OpenAI.BaseURL,
				APIKey:  cfg.OpenAI.APIKey,
			}))
		default:
			return nil, fmt.Errorf("unsupported provider %q (supported: %s, %s)", tag, provider.Bedrock, provider.OpenAI)
		}
	}
	return reg, nil
}

func providerTags(models []model.ModelSpec) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, m := range models {
		tag := strings.ToLower(strings.TrimSpace(m.Provider))
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}
