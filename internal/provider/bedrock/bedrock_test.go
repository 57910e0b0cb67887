package bedrock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/provider"
)

type fakeConverse struct {
	mu     sync.Mutex
	inputs []*bedrockruntime.ConverseInput
	out    *bedrockruntime.ConverseOutput
	err    error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	return f.out, f.err
}

func textOutput(chunks ...string) *bedrockruntime.ConverseOutput {
	var blocks []types.ContentBlock
	for _, c := range chunks {
		blocks = append(blocks, &types.ContentBlockMemberText{Value: c})
	}
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: blocks},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(34),
			TotalTokens:  aws.Int32(46),
		},
	}
}

func invokerWith(fake *fakeConverse) *Invoker {
	return NewWithClientFactory("eu-central-1", func(string) ConverseAPI { return fake })
}

func TestInvokeSuccess(t *testing.T) {
	fake := &fakeConverse{out: textOutput("Hello, ", "world")}
	inv := invokerWith(fake)

	out, err := inv.Invoke(context.Background(), provider.Request{
		ModelID:     "amazon.nova-lite-v1:0",
		Prompt:      "say hi",
		MaxTokens:   256,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Nil(t, out.Error)
	assert.Equal(t, "Hello, world", out.Response)
	assert.Equal(t, 12, out.InputTokens)
	assert.Equal(t, 34, out.OutputTokens)
	assert.GreaterOrEqual(t, out.ResponseTime, 0.0)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "amazon.nova-lite-v1:0", aws.ToString(in.ModelId))
	require.Len(t, in.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, in.Messages[0].Role)
	assert.Equal(t, int32(256), aws.ToInt32(in.InferenceConfig.MaxTokens))
	assert.InDelta(t, 0.7, aws.ToFloat32(in.InferenceConfig.Temperature), 1e-6)
	assert.InDelta(t, 0.9, aws.ToFloat32(in.InferenceConfig.TopP), 1e-6)
}

func TestInvokeOmitsTopPForAnthropic(t *testing.T) {
	fake := &fakeConverse{out: textOutput("ok")}
	inv := invokerWith(fake)

	_, err := inv.Invoke(context.Background(), provider.Request{ModelID: "anthropic.claude-3-haiku", Prompt: "x", MaxTokens: 1})
	require.NoError(t, err)
	assert.Nil(t, fake.inputs[0].InferenceConfig.TopP)
}

func TestInvokeMissingUsage(t *testing.T) {
	out := textOutput("ok")
	out.Usage = nil
	inv := invokerWith(&fakeConverse{out: out})

	res, err := inv.Invoke(context.Background(), provider.Request{ModelID: "m"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.InputTokens)
	assert.Zero(t, res.OutputTokens)
}

func TestInvokeClassifiesFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind model.ErrorKind
		code string
	}{
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}, model.ErrorRateLimit, "ThrottlingException"},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"}, model.ErrorAuth, "AccessDeniedException"},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Message: "bad"}, model.ErrorValidation, "ValidationException"},
		{"model timeout", &smithy.GenericAPIError{Code: "ModelTimeoutException", Message: "late"}, model.ErrorTimeout, "ModelTimeoutException"},
		{"wrapped api error", fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: "ServiceUnavailableException"}), model.ErrorService, "ServiceUnavailableException"},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), model.ErrorTimeout, "RequestTimeout"},
		{"other", errors.New("connection reset"), model.ErrorService, "UnknownError"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := invokerWith(&fakeConverse{err: tc.err})

			out, err := inv.Invoke(context.Background(), provider.Request{ModelID: "m"})
			require.NoError(t, err)
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tc.kind, out.Error.Kind)
			assert.Equal(t, tc.code, out.Error.Code)
			assert.NotEmpty(t, out.Error.Message)
			assert.Empty(t, out.Response)
		})
	}
}

func TestClientsAreCachedPerRegion(t *testing.T) {
	var created []string
	inv := NewWithClientFactory("eu-central-1", func(region string) ConverseAPI {
		created = append(created, region)
		return &fakeConverse{out: textOutput("ok")}
	})

	for _, region := range []string{"", "eu-central-1", "us-east-1", "us-east-1"} {
		_, err := inv.Invoke(context.Background(), provider.Request{ModelID: "m", Region: region})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"eu-central-1", "us-east-1"}, created)
}

func TestValidateCredentials(t *testing.T) {
	inv := invokerWith(&fakeConverse{})
	assert.Error(t, inv.ValidateCredentials(context.Background()))

	inv.credentials = credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")
	assert.NoError(t, inv.ValidateCredentials(context.Background()))

	inv.credentials = credentials.NewStaticCredentialsProvider("", "", "")
	assert.Error(t, inv.ValidateCredentials(context.Background()))
}
