package ollama

import (
	"context"
	"log/slog"

	"github.com/poiesic/litscreen/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Oracle implements ai.Oracle using Ollama's native chat API.
// A schema switches the call into JSON mode, but Ollama does not enforce the
// schema itself, so replies are never reported as Structured.
type Oracle struct {
	client llms.Model
	config *ai.Config
	logger *slog.Logger
}

func newOracle(config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := ollama.New(
		ollama.WithModel(config.OracleModel),
		ollama.WithServerURL(config.OracleHost),
	)
	if err != nil {
		return nil, err
	}

	return newOracleWithModel(config, client), nil
}

func newOracleWithModel(config *ai.Config, client llms.Model) *Oracle {
	return &Oracle{
		client: client,
		config: config,
		logger: slog.Default().With("component", "ollama-oracle"),
	}
}

// NewOracle creates a new Ollama oracle.
func NewOracle(config *ai.Config) (ai.Oracle, error) {
	return newOracle(config)
}

// Invoke sends prompt as a single user message.
func (o *Oracle) Invoke(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	opts := []llms.CallOption{
		llms.WithTemperature(o.config.Temperature),
		llms.WithSeed(o.config.Seed),
	}
	if o.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(o.config.MaxTokens))
	}
	if schema != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	o.logger.Debug("invoking oracle", "model", o.config.OracleModel, "prompt_length", len(prompt), "json", schema != nil)

	response, err := o.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		o.logger.Error("failed to generate content", "err", err)
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, ai.ErrEmptyResponse
	}

	return &ai.Reply{Text: response.Choices[0].Content}, nil
}
