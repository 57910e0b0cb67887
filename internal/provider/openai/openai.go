/*
PURPOSE:
  Invokes OpenAI-compatible chat completion endpoints.

REQUIREMENTS:
  User-specified:
  - Same outcome contract as the Bedrock invoker.

  Implementation-discovered:
  - HTTP status mapped to vendor codes before classification.
  - Token counts estimated when the server omits usage.

ARCHITECTURE INTEGRATION:
  - Registered by: internal/cli/providers.go
  - Uses: github.com/sashabaranov/go-openai

ERROR HANDLING:
  - Vendor failures are outcomes; Invoke itself never returns an error.

IMPLEMENTATION RULES:
  - One client per invoker; safe for concurrent use.

USAGE:
  inv := New(Options{BaseURL: "http://localhost:11434/v1", APIKey: key})

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/provider/openai/token.go
  - internal/provider/provider.go

MAINTENANCE:
  - None.
*/

// Package openai invokes OpenAI-compatible chat completion endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

// Options configures an OpenAI-compatible invoker.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Invoker calls a chat completion endpoint once per request.
type Invoker struct {
	client *goopenai.Client
	apiKey string
	count  func(modelID, text string) int
}

// New creates an invoker. An empty BaseURL targets api.openai.com.
func New(opts Options) *Invoker {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	return &Invoker{
		client: goopenai.NewClientWithConfig(cfg),
		apiKey: opts.APIKey,
		count:  countTokens,
	}
}

// ValidateCredentials requires an API key to be present.
func (inv *Invoker) ValidateCredentials(context.Context) error {
	if strings.TrimSpace(inv.apiKey) == "" {
		return fmt.Errorf("api key is not set (OPENAI_API_KEY or openai.api_key)")
	}
	return nil
}

// Invoke sends one non-streaming chat completion.
func (inv *Invoker) Invoke(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
	start := time.Now()

	resp, err := inv.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: req.ModelID,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return failureFor(err, elapsed), nil
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	inputTokens, outputTokens := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	if inputTokens == 0 && outputTokens == 0 {
		// Some compatible servers omit usage entirely.
		inputTokens = inv.count(req.ModelID, req.Prompt)
		outputTokens = inv.count(req.ModelID, text)
	}

	return model.CallOutcome{
		Success:      true,
		ResponseTime: elapsed,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Response:     text,
	}, nil
}

func failureFor(err error, elapsed float64) model.CallOutcome {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return provider.VendorFailure(codeForStatus(apiErr.HTTPStatusCode), apiErr.Message, elapsed)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return provider.VendorFailure(codeForStatus(reqErr.HTTPStatusCode), reqErr.Error(), elapsed)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Failure(model.ErrorTimeout, "RequestTimeout", err.Error(), elapsed)
	}
	return model.Failure(model.ErrorService, "UnknownError", err.Error(), elapsed)
}

// codeForStatus names an HTTP status with the vendor code vocabulary the classifier knows.
func codeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "TooManyRequests"
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return "RequestTimeout"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "ValidationException"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "AccessDenied"
	}
	return fmt.Sprintf("HTTP%d", status)
}
