/*
PURPOSE:
  Defines the inference capability every vendor variant implements.
  One call in, one normalized outcome out.

REQUIREMENTS:
  User-specified:
  - Invoke a model with a prompt, max tokens and temperature.
  - Report vendor errors as classified failures, not Go errors.

  Implementation-discovered:
  - Vendors are selected by a provider tag on each model.
  - Credentials must be checked before a run starts.

ARCHITECTURE INTEGRATION:
  - Implemented by: internal/provider/bedrock, internal/provider/openai
  - Called by: internal/engine (Dispatcher)

ERROR HANDLING:
  - Vendor failures: CallOutcome with Success=false and a classified CallError.
  - A returned error means the call never produced a record; the dispatcher
    records it as an exception.

IMPLEMENTATION RULES:
  - Never retry. One attempt per call.
  - Classification is substring based and case sensitive; order matters.

USAGE:
  reg := provider.NewRegistry()
  reg.Register(provider.Bedrock, inv)
  inv, err := reg.Lookup(spec.Provider)

SELF-HEALING INSTRUCTIONS:
  - New vendor: add a package implementing Invoker and register it in internal/cli.

RELATED FILES:
  - internal/engine/dispatcher.go

MAINTENANCE:
  - Update ClassifyErrorCode when a vendor introduces new error codes.
*/

package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daryltucker/llm-bench/internal/model"
)

// Provider tags.
const (
	Bedrock = "bedrock"
	OpenAI  = "openai"
)

// Request is the input of a single inference call.
type Request struct {
	ModelID     string
	Prompt      string
	MaxTokens   int
	Temperature float64
	// Region overrides the invoker's default region when the vendor has regions.
	Region string
}

// RequestFor builds the request for spec and prompt.
func RequestFor(spec model.ModelSpec, prompt string) Request {
	return Request{
		ModelID:     spec.ModelID,
		Prompt:      prompt,
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
		Region:      spec.Region,
	}
}

// Invoker performs one model call.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (model.CallOutcome, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) (model.CallOutcome, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (model.CallOutcome, error) {
	return f(ctx, req)
}

// CredentialValidator is implemented by invokers that can check their credentials up front.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context) error
}

var codeClasses = []struct {
	kind    model.ErrorKind
	needles []string
}{
	{model.ErrorRateLimit, []string{"Throttling", "TooManyRequests"}},
	{model.ErrorTimeout, []string{"Timeout", "RequestTimeout"}},
	{model.ErrorValidation, []string{"ValidationException"}},
	{model.ErrorAuth, []string{"AccessDenied"}},
}

// ClassifyErrorCode maps a vendor error code to an ErrorKind.
// First match wins: rate_limit, timeout, validation_error, auth_error, else service_error.
func ClassifyErrorCode(code string) model.ErrorKind {
	for _, class := range codeClasses {
		for _, needle := range class.needles {
			if strings.Contains(code, needle) {
				return class.kind
			}
		}
	}
	return model.ErrorService
}

// VendorFailure builds a failed outcome for a vendor error code.
func VendorFailure(code, message string, responseTime float64) model.CallOutcome {
	return model.Failure(ClassifyErrorCode(code), code, message, responseTime)
}

// Registry holds one invoker per provider tag.
type Registry struct {
	invokers map[string]Invoker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{invokers: make(map[string]Invoker)}
}

// Register adds or replaces the invoker for tag.
func (r *Registry) Register(tag string, inv Invoker) {
	r.invokers[normalize(tag)] = inv
}

// Lookup returns the invoker registered for tag.
func (r *Registry) Lookup(tag string) (Invoker, error) {
	inv, ok := r.invokers[normalize(tag)]
	if !ok {
		return nil, fmt.Errorf("no invoker registered for provider %q (known: %s)", tag, strings.Join(r.Tags(), ", "))
	}
	return inv, nil
}

// Tags lists the registered provider tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.invokers))
	for tag := range r.invokers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ValidateCredentials checks the credentials of every provider used by models.
func (r *Registry) ValidateCredentials(ctx context.Context, models []model.ModelSpec) error {
	seen := make(map[string]bool)
	for _, m := range models {
		tag := normalize(m.Provider)
		if seen[tag] {
			continue
		}
		seen[tag] = true

		inv, err := r.Lookup(tag)
		if err != nil {
			return err
		}
		v, ok := inv.(CredentialValidator)
		if !ok {
			continue
		}
		if err := v.ValidateCredentials(ctx); err != nil {
			return fmt.Errorf("%s credentials: %w", tag, err)
		}
	}
	return nil
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
