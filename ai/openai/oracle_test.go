package openai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/poiesic/litscreen/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
	"github.com/tmc/langchaingo/llms/openai"
)

// recordingModel captures call options passed to GenerateContent.
type recordingModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	options llms.CallOptions
	prompts []string
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, opt := range options {
		opt(&m.options)
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestOracle_InvokeStructured(t *testing.T) {
	var formats []*openai.ResponseFormat
	oracle := newOracleWithFactory(ai.DefaultConfig(), func(format *openai.ResponseFormat) (llms.Model, error) {
		formats = append(formats, format)
		return fake.NewFakeLLM([]string{`{"classification":"INCLUDE","keywords":[],"reason":"ok"}`}), nil
	})

	reply, err := oracle.Invoke(context.Background(), "classify this", ai.ClassificationSchema)
	require.NoError(t, err)
	assert.True(t, reply.Structured)
	assert.Contains(t, reply.Text, "INCLUDE")

	// Second call with the same schema reuses the cached client
	_, err = oracle.Invoke(context.Background(), "classify that", ai.ClassificationSchema)
	require.NoError(t, err)
	require.Len(t, formats, 1)
	require.NotNil(t, formats[0])
	assert.Equal(t, "json_schema", formats[0].Type)
	assert.Equal(t, ai.ClassificationSchema.Name, formats[0].JSONSchema.Name)
	assert.True(t, formats[0].JSONSchema.Strict)
}

func TestOracle_InvokePlain(t *testing.T) {
	model := &recordingModel{reply: "plain text"}
	cfg := ai.NewConfig(ai.WithTemperature(0.2), ai.WithSeed(42), ai.WithMaxTokens(256))
	oracle := newOracleWithFactory(cfg, func(format *openai.ResponseFormat) (llms.Model, error) {
		assert.Nil(t, format)
		return model, nil
	})

	reply, err := oracle.Invoke(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.False(t, reply.Structured)
	assert.Equal(t, "plain text", reply.Text)

	assert.Equal(t, 0.2, model.options.Temperature)
	assert.Equal(t, 42, model.options.Seed)
	assert.Equal(t, 256, model.options.MaxTokens)
	assert.Equal(t, []string{"hello"}, model.prompts)
}

func TestOracle_InvokeErrors(t *testing.T) {
	t.Run("backend error", func(t *testing.T) {
		boom := errors.New("connection refused")
		oracle := newOracleWithFactory(ai.DefaultConfig(), func(*openai.ResponseFormat) (llms.Model, error) {
			return &recordingModel{err: boom}, nil
		})
		_, err := oracle.Invoke(context.Background(), "x", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no choices", func(t *testing.T) {
		oracle := newOracleWithFactory(ai.DefaultConfig(), func(*openai.ResponseFormat) (llms.Model, error) {
			return &recordingModel{}, nil
		})
		_, err := oracle.Invoke(context.Background(), "x", nil)
		assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	})

	t.Run("factory error", func(t *testing.T) {
		boom := errors.New("bad url")
		oracle := newOracleWithFactory(ai.DefaultConfig(), func(*openai.ResponseFormat) (llms.Model, error) {
			return nil, boom
		})
		_, err := oracle.Invoke(context.Background(), "x", ai.RefinementSchema)
		assert.ErrorIs(t, err, boom)
	})
}

func TestToResponseFormat(t *testing.T) {
	format := toResponseFormat(ai.RefinementSchema)

	require.NotNil(t, format.JSONSchema)
	root := format.JSONSchema.Schema
	require.NotNil(t, root)
	assert.Equal(t, "object", root.Type)
	assert.Equal(t, []string{"result"}, root.Required)

	result := root.Properties["result"]
	require.NotNil(t, result)
	assert.False(t, result.AdditionalProperties)
	assert.Equal(t, "array", result.Properties["key_concepts"].Type)
	assert.Equal(t, "string", result.Properties["key_concepts"].Items.Type)
	assert.ElementsMatch(t,
		[]string{"initial_query", "refined_query", "key_concepts", "refinement_reason"},
		result.Required)
}

func TestEmbedder_QueryAndAbstract(t *testing.T) {
	var batches [][]string
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		batches = append(batches, texts)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text)), 1}
		}
		return out, nil
	})
	inner, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)

	e := &Embedder{embedder: inner, logger: slog.Default()}

	vec, err := e.EmbedQuery(context.Background(), "psa")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)

	vec, err = e.EmbedAbstract(context.Background(), "abcd\nef")
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 1}, vec)

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"abcd ef"}, batches[1])
}

func TestEmbedder_EmbedAbstract_EmptyReply(t *testing.T) {
	client := embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, nil
	})
	inner, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)

	e := &Embedder{embedder: inner, logger: slog.Default()}

	vec, err := e.EmbedAbstract(context.Background(), "abstract")
	require.NoError(t, err)
	assert.Empty(t, vec)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{Backend: ai.BackendOpenAI})
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
