package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyErrorCode(t *testing.T) {
	cases := map[string]model.ErrorKind{
		"ThrottlingException":        model.ErrorRateLimit,
		"TooManyRequests":            model.ErrorRateLimit,
		"ModelTimeoutException":      model.ErrorTimeout,
		"RequestTimeout":             model.ErrorTimeout,
		"ValidationException":        model.ErrorValidation,
		"AccessDeniedException":      model.ErrorAuth,
		"ServiceUnavailable":         model.ErrorService,
		"UnknownError":               model.ErrorService,
		"":                           model.ErrorService,
		"throttling":                 model.ErrorService,
		"TimeoutAccessDenied":        model.ErrorTimeout,
		"ThrottlingValidationFailed": model.ErrorRateLimit,
	}
	for code, want := range cases {
		assert.Equal(t, want, ClassifyErrorCode(code), "code %q", code)
	}
}

func TestVendorFailure(t *testing.T) {
	out := VendorFailure("AccessDeniedException", "no access", 0.25)

	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, model.ErrorAuth, out.Error.Kind)
	assert.Equal(t, "AccessDeniedException", out.Error.Code)
	assert.Equal(t, "no access", out.Error.Message)
	assert.Equal(t, 0.25, out.ResponseTime)
}

func TestRequestFor(t *testing.T) {
	spec := model.ModelSpec{ModelID: "id", MaxTokens: 10, Temperature: 0.3, Region: "us-east-1"}
	assert.Equal(t, Request{ModelID: "id", Prompt: "hi", MaxTokens: 10, Temperature: 0.3, Region: "us-east-1"}, RequestFor(spec, "hi"))
}

type validatingInvoker struct {
	InvokerFunc
	err   error
	calls int
}

func (v *validatingInvoker) ValidateCredentials(context.Context) error {
	v.calls++
	return v.err
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	inv := InvokerFunc(func(context.Context, Request) (model.CallOutcome, error) {
		return model.CallOutcome{Success: true}, nil
	})
	reg.Register(" Bedrock ", inv)

	got, err := reg.Lookup("bedrock")
	require.NoError(t, err)
	out, err := got.Invoke(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, err = reg.Lookup("azure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "azure")
	assert.Equal(t, []string{"bedrock"}, reg.Tags())
}

func TestRegistryValidateCredentials(t *testing.T) {
	good := &validatingInvoker{}
	bad := &validatingInvoker{err: errors.New("no key")}
	reg := NewRegistry()
	reg.Register(Bedrock, good)
	reg.Register(OpenAI, bad)

	err := reg.ValidateCredentials(context.Background(), []model.ModelSpec{
		{Name: "a", Provider: Bedrock},
		{Name: "b", Provider: Bedrock},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, good.calls)

	err = reg.ValidateCredentials(context.Background(), []model.ModelSpec{{Name: "c", Provider: OpenAI}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai credentials")

	err = reg.ValidateCredentials(context.Background(), []model.ModelSpec{{Name: "d", Provider: "mystery"}})
	assert.Error(t, err)
}
