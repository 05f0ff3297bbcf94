package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	anthropicMaxTokens    = 8192

	// submitResultTool is the forced tool used for structured generation.
	// Constraining output through a required tool call is more reliable
	// than asking for raw JSON in the prompt.
	submitResultTool = "submit_result"
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

var _ Client = (*AnthropicClient)(nil)

// NewAnthropicClient creates a client for the Anthropic API. Model
// defaults to claude-sonnet-4 if empty.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	for _, content := range message.Content {
		if content.Type == "text" {
			return content.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}

func (c *AnthropicClient) GenerateObject(ctx context.Context, prompt string, out any) error {
	schema, err := reflectSchema(out)
	if err != nil {
		return err
	}
	props, required := schemaProperties(schema)

	tool := anthropic.ToolParam{
		Name:        submitResultTool,
		Description: anthropic.String("Submit the structured result for this task."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
		Tools: []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: submitResultTool},
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic message: %w", err)
	}

	for _, content := range message.Content {
		if content.Type == "tool_use" && content.Name == submitResultTool {
			if err := json.Unmarshal(content.Input, out); err != nil {
				return fmt.Errorf("decoding tool input: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("no %s tool call in anthropic response", submitResultTool)
}
