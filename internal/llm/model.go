// Package llm provides LLM and embedding services using langchaingo.
package llm

import (
	"context"
	"fmt"

	"github.com/SurabhiV1999/ChemBot/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generation is the result of one completion call.
type Generation struct {
	Text       string
	TokensUsed int
}

// Model wraps langchaingo LLM for text generation.
type Model struct {
	llm         llms.Model
	modelName   string
	temperature float64
	maxTokens   int
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:         model,
		modelName:   cfg.LLMModel,
		temperature: cfg.LLMTemperature,
		maxTokens:   cfg.LLMMaxTokens,
	}, nil
}

// GenerateWithSystem generates text with a system prompt. Caller options
// override the configured temperature and token limit.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...llms.CallOption) (*Generation, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	callOpts := append(m.defaultOptions(), opts...)

	response, err := m.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("generate with system: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	return &Generation{
		Text:       choice.Content,
		TokensUsed: tokensFromInfo(choice.GenerationInfo),
	}, nil
}

// GenerateWithSystemStream generates text, delivering increments through
// onToken as they arrive. The returned Generation holds the full text.
func (m *Model) GenerateWithSystemStream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string) error, opts ...llms.CallOption) (*Generation, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	callOpts := append(m.defaultOptions(), opts...)
	callOpts = append(callOpts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		return onToken(string(chunk))
	}))

	response, err := m.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("generate stream: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	return &Generation{
		Text:       choice.Content,
		TokensUsed: tokensFromInfo(choice.GenerationInfo),
	}, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

func (m *Model) defaultOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(m.temperature),
		llms.WithMaxTokens(m.maxTokens),
	}
}

// tokensFromInfo pulls the token count out of provider generation info.
func tokensFromInfo(info map[string]any) int {
	if info == nil {
		return 0
	}
	if total := asInt(info["TotalTokens"]); total > 0 {
		return total
	}
	return asInt(info["PromptTokens"]) + asInt(info["CompletionTokens"])
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
