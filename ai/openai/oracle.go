// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/litscreen/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// clientFactory builds a chat client, optionally pinned to a response format.
type clientFactory func(format *openai.ResponseFormat) (llms.Model, error)

// Oracle implements ai.Oracle using OpenAI-compatible chat APIs.
// Requests with a schema use a strict json_schema response format, which
// OpenAI-compatible servers enforce, so those replies are Structured.
type Oracle struct {
	config  *ai.Config
	factory clientFactory

	mu      sync.Mutex
	plain   llms.Model
	schemas map[string]llms.Model

	logger *slog.Logger
}

// newOracle is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newOracle(config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	factory := func(format *openai.ResponseFormat) (llms.Model, error) {
		// Use "none" as token for local OpenAI-compatible services that don't require authentication
		opts := []openai.Option{
			openai.WithBaseURL(config.OracleHost),
			openai.WithToken("none"),
			openai.WithModel(config.OracleModel),
		}
		if format != nil {
			opts = append(opts, openai.WithResponseFormat(format))
		}
		return openai.New(opts...)
	}

	return newOracleWithFactory(config, factory), nil
}

func newOracleWithFactory(config *ai.Config, factory clientFactory) *Oracle {
	return &Oracle{
		config:  config,
		factory: factory,
		schemas: make(map[string]llms.Model),
		logger:  slog.Default().With("component", "openai-oracle"),
	}
}

// NewOracle creates a new oracle using the provided configuration.
//
// Returns ai.Oracle interface to enforce abstraction.
func NewOracle(config *ai.Config) (ai.Oracle, error) {
	return newOracle(config)
}

// Invoke sends prompt as a single user message.
func (o *Oracle) Invoke(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error) {
	client, err := o.clientFor(schema)
	if err != nil {
		return nil, err
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	o.logger.Debug("invoking oracle", "model", o.config.OracleModel, "prompt_length", len(prompt), "structured", schema != nil)

	response, err := client.GenerateContent(ctx, content, callOptions(o.config)...)
	if err != nil {
		o.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		o.logger.Warn("no choices returned from model")
		return nil, ai.ErrEmptyResponse
	}

	return &ai.Reply{
		Text:       response.Choices[0].Content,
		Structured: schema != nil,
	}, nil
}

// clientFor returns a client for the schema, creating and caching it on first use.
func (o *Oracle) clientFor(schema *ai.Schema) (llms.Model, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if schema == nil {
		if o.plain == nil {
			client, err := o.factory(nil)
			if err != nil {
				return nil, err
			}
			o.plain = client
		}
		return o.plain, nil
	}

	if client, ok := o.schemas[schema.Name]; ok {
		return client, nil
	}
	client, err := o.factory(toResponseFormat(schema))
	if err != nil {
		return nil, err
	}
	o.schemas[schema.Name] = client
	return client, nil
}

// callOptions translates the sampling configuration into langchaingo call options.
func callOptions(config *ai.Config) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(config.Temperature),
		llms.WithSeed(config.Seed),
	}
	if config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(config.MaxTokens))
	}
	return opts
}

// toResponseFormat converts a schema into a strict json_schema response format.
func toResponseFormat(schema *ai.Schema) *openai.ResponseFormat {
	return &openai.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &openai.ResponseFormatJSONSchema{
			Name:   schema.Name,
			Strict: true,
			Schema: toSchemaProperty(schema.Root),
		},
	}
}

func toSchemaProperty(p *ai.Property) *openai.ResponseFormatJSONSchemaProperty {
	if p == nil {
		return nil
	}
	out := &openai.ResponseFormatJSONSchemaProperty{
		Type:        p.Type,
		Description: p.Description,
		Required:    p.Required,
		Items:       toSchemaProperty(p.Items),
	}
	if len(p.Properties) > 0 {
		out.Properties = make(map[string]*openai.ResponseFormatJSONSchemaProperty, len(p.Properties))
		for name, child := range p.Properties {
			out.Properties[name] = toSchemaProperty(child)
		}
	}
	return out
}
