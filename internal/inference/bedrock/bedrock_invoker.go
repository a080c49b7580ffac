package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"tickmill/internal/config"
	"tickmill/internal/inference"
	"tickmill/internal/port"
)

const defaultModel = "us.meta.llama3-2-11b-instruct-v1:0"

// converseAPI is the slice of the Bedrock runtime client the invoker uses.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Invoker implements port.ModelInvoker using the AWS Bedrock Converse API.
type Invoker struct {
	client converseAPI
	model  string
}

// NewInvoker creates a Bedrock-based invoker from an invoker config.
func NewInvoker(cfg *config.InvokerConfig) (*Invoker, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return newInvoker(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewInvokerWithClient creates an invoker backed by a custom Converse client (for testing).
func NewInvokerWithClient(client converseAPI, cfg *config.InvokerConfig) *Invoker {
	return newInvoker(client, cfg)
}

func newInvoker(client converseAPI, cfg *config.InvokerConfig) *Invoker {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	return &Invoker{client: client, model: model}
}

func (i *Invoker) Invoke(ctx context.Context, input port.InvokeInput) (string, error) {
	out, err := i.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(i.model),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: input.Prompt},
					&brtypes.ContentBlockMemberImage{Value: brtypes.ImageBlock{
						Format: brtypes.ImageFormat(input.ImageFormat),
						Source: &brtypes.ImageSourceMemberBytes{Value: input.ImageBytes},
					}},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(input.MaxTokens)),
			Temperature: aws.Float32(float32(input.Temperature)),
		},
	})
	if err != nil {
		var throttled *brtypes.ThrottlingException
		if errors.As(err, &throttled) {
			return "", inference.NewRateLimitError("bedrock", err, 0)
		}
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", fmt.Errorf("empty response from bedrock")
	}

	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("no text content in bedrock response")
}
