package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/inference"
	"tickmill/internal/port"
)

type fakeConverse struct {
	captured *bedrockruntime.ConverseInput
	output   *bedrockruntime.ConverseOutput
	err      error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.captured = params
	return f.output, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: text},
				},
			},
		},
	}
}

func TestInvokeBuildsConverseRequest(t *testing.T) {
	fake := &fakeConverse{output: textOutput(`{"ok": true}`)}
	inv := NewInvokerWithClient(fake, &config.InvokerConfig{DefaultModel: "test-model"})

	out, err := inv.Invoke(context.Background(), port.InvokeInput{
		Prompt:      "read this ticket",
		ImageBytes:  []byte{0x01, 0x02},
		ImageFormat: domain.FormatJPEG,
		MaxTokens:   2000,
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)

	require.NotNil(t, fake.captured)
	assert.Equal(t, "test-model", aws.ToString(fake.captured.ModelId))
	assert.Equal(t, int32(2000), aws.ToInt32(fake.captured.InferenceConfig.MaxTokens))
	assert.InDelta(t, 0.1, float64(aws.ToFloat32(fake.captured.InferenceConfig.Temperature)), 0.001)

	require.Len(t, fake.captured.Messages, 1)
	require.Len(t, fake.captured.Messages[0].Content, 2)
	img, ok := fake.captured.Messages[0].Content[1].(*brtypes.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, brtypes.ImageFormat("jpeg"), img.Value.Format)
}

func TestInvokeDefaultsModel(t *testing.T) {
	fake := &fakeConverse{output: textOutput("x")}
	inv := NewInvokerWithClient(fake, &config.InvokerConfig{})

	_, err := inv.Invoke(context.Background(), port.InvokeInput{ImageFormat: domain.FormatJPEG})
	require.NoError(t, err)
	assert.Equal(t, defaultModel, aws.ToString(fake.captured.ModelId))
}

func TestInvokeThrottlingBecomesRateLimitError(t *testing.T) {
	fake := &fakeConverse{err: &brtypes.ThrottlingException{Message: aws.String("slow down")}}
	inv := NewInvokerWithClient(fake, &config.InvokerConfig{})

	_, err := inv.Invoke(context.Background(), port.InvokeInput{ImageFormat: domain.FormatJPEG})
	var rlErr *inference.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "bedrock", rlErr.Provider)
}

func TestInvokeEmptyResponse(t *testing.T) {
	fake := &fakeConverse{output: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
	}}
	inv := NewInvokerWithClient(fake, &config.InvokerConfig{})

	_, err := inv.Invoke(context.Background(), port.InvokeInput{ImageFormat: domain.FormatJPEG})
	assert.Error(t, err)
}
