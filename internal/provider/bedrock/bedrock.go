/*
PURPOSE:
  Inference invoker for AWS Bedrock models through the Converse API.

REQUIREMENTS:
  User-specified:
  - One request/response call per invocation (no streaming, no retries).
  - Token usage comes from the Converse usage block.

  Implementation-discovered:
  - Anthropic models reject temperature and topP together; topP is only sent
    to other families.
  - Clients are cached per region; a model may override the default region.

ARCHITECTURE INTEGRATION:
  - Implements: provider.Invoker, provider.CredentialValidator
  - Registered by: internal/cli (run command)

ERROR HANDLING:
  - smithy.APIError: classified by its error code.
  - Context deadline: timeout/RequestTimeout.
  - Anything else: service_error/UnknownError.
  - Invoke never returns a Go error; every failure is an outcome.

IMPLEMENTATION RULES:
  - Measure response time for failures too.

USAGE:
  inv, err := bedrock.New(ctx, bedrock.Options{Region: "eu-central-1"})

SELF-HEALING INSTRUCTIONS:
  - If Converse output shapes change, update extractText/usage.

RELATED FILES:
  - internal/provider/provider.go

MAINTENANCE:
  - Update when Bedrock adds content block types worth reporting.
*/

package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

const defaultTopP = 0.9

// ConverseAPI is the part of the Bedrock runtime client the invoker needs.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures a Bedrock invoker.
type Options struct {
	Region string
	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Invoker calls Bedrock models.
type Invoker struct {
	defaultRegion string
	credentials   aws.CredentialsProvider
	newClient     func(region string) ConverseAPI

	mu      sync.Mutex
	clients map[string]ConverseAPI
}

// New loads the AWS configuration and returns an invoker for opts.Region.
func New(ctx context.Context, opts Options) (*Invoker, error) {
	if opts.Region == "" {
		return nil, fmt.Errorf("bedrock region is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" || opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	inv := NewWithClientFactory(opts.Region, func(region string) ConverseAPI {
		regional := cfg.Copy()
		regional.Region = region
		return bedrockruntime.NewFromConfig(regional)
	})
	inv.credentials = cfg.Credentials
	return inv, nil
}

// NewWithClientFactory builds an invoker whose regional clients come from factory.
func NewWithClientFactory(defaultRegion string, factory func(region string) ConverseAPI) *Invoker {
	return &Invoker{
		defaultRegion: defaultRegion,
		newClient:     factory,
		clients:       make(map[string]ConverseAPI),
	}
}

func (inv *Invoker) clientFor(region string) ConverseAPI {
	if region == "" {
		region = inv.defaultRegion
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	c, ok := inv.clients[region]
	if !ok {
		c = inv.newClient(region)
		inv.clients[region] = c
	}
	return c
}

// ValidateCredentials resolves credentials from the configured chain.
func (inv *Invoker) ValidateCredentials(ctx context.Context) error {
	if inv.credentials == nil {
		return fmt.Errorf("no aws credentials provider configured")
	}
	creds, err := inv.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("aws credentials not found or invalid: %w", err)
	}
	if !creds.HasKeys() {
		return fmt.Errorf("aws credentials are empty")
	}
	return nil
}

// Invoke sends one Converse request.
func (inv *Invoker) Invoke(ctx context.Context, req provider.Request) (model.CallOutcome, error) {
	start := time.Now()

	inference := &types.InferenceConfiguration{
		MaxTokens:   aws.Int32(int32(req.MaxTokens)),
		Temperature: aws.Float32(float32(req.Temperature)),
	}
	if !strings.Contains(req.ModelID, "anthropic") {
		inference.TopP = aws.Float32(defaultTopP)
	}

	out, err := inv.clientFor(req.Region).Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.ModelID),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.Prompt}},
			},
		},
		InferenceConfig: inference,
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return failureFor(err, elapsed), nil
	}

	inputTokens, outputTokens := usage(out)
	return model.CallOutcome{
		Success:      true,
		ResponseTime: elapsed,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Response:     extractText(out),
	}, nil
}

func failureFor(err error, elapsed float64) model.CallOutcome {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = err.Error()
		}
		return provider.VendorFailure(apiErr.ErrorCode(), msg, elapsed)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Failure(model.ErrorTimeout, "RequestTimeout", err.Error(), elapsed)
	}
	return model.Failure(model.ErrorService, "UnknownError", err.Error(), elapsed)
}

func extractText(out *bedrockruntime.ConverseOutput) string {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

func usage(out *bedrockruntime.ConverseOutput) (int, int) {
	if out.Usage == nil {
		return 0, 0
	}
	return int(aws.ToInt32(out.Usage.InputTokens)), int(aws.ToInt32(out.Usage.OutputTokens))
}
