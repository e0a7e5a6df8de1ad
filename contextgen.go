package fsptrainer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultLLMBaseURL = "https://api.groq.com/openai/v1"
	DefaultLLMModel   = "llama-3.3-70b-versatile"
)

// ErrAIUnavailable is recorded when no API key is configured
var ErrAIUnavailable = errors.New("example sentence service is not configured")

// Describer produces a one-sentence clinical usage example for a term.
// Implementations never fail; they fall back to a fixed sentence instead.
type Describer interface {
	Describe(ctx context.Context, term, meaning string) string
}

// ChatCompleter is the part of the OpenAI client the context generator uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ContextGenerator asks an OpenAI-compatible chat endpoint for an example sentence
type ContextGenerator struct {
	client      ChatCompleter
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	llmLog      *LLMLogger
}

// NewContextGenerator creates a generator from config. Without an API key
// every call returns the fallback sentence.
func NewContextGenerator(cfg LLMConfig) *ContextGenerator {
	if cfg.APIKey == "" {
		logger.Warn("No LLM API key configured, example sentences use the fallback template")
		return NewContextGeneratorWithClient(nil, cfg)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewContextGeneratorWithClient(openai.NewClientWithConfig(clientCfg), cfg)
}

// NewContextGeneratorWithClient wires an explicit completer, e.g. a fake in tests
func NewContextGeneratorWithClient(client ChatCompleter, cfg LLMConfig) *ContextGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultLLMModel
	}
	return &ContextGenerator{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// WithLogger returns a copy that writes a transcript to ll
func (cg *ContextGenerator) WithLogger(ll *LLMLogger) *ContextGenerator {
	c := *cg
	c.llmLog = ll
	return &c
}

// Available reports whether a remote service is configured
func (cg *ContextGenerator) Available() bool {
	return cg.client != nil
}

// Describe makes exactly one attempt at the remote service
func (cg *ContextGenerator) Describe(ctx context.Context, term, meaning string) string {
	if cg.client == nil {
		cg.logFallback(term, ErrAIUnavailable)
		return FallbackSentence(term, meaning)
	}

	if cg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cg.timeout)
		defer cancel()
	}

	prompt := buildContextPrompt(term, meaning)
	if cg.llmLog != nil {
		cg.llmLog.LogLLMRequest(term, prompt)
	}

	start := time.Now()
	resp, err := cg.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cg.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: cg.temperature,
		MaxTokens:   cg.maxTokens,
	})
	if err != nil {
		cg.logFallback(term, fmt.Errorf("chat completion: %w", err))
		return failureSentence(term, meaning)
	}
	if len(resp.Choices) == 0 {
		cg.logFallback(term, errors.New("no choices in response"))
		return failureSentence(term, meaning)
	}

	text := firstLine(resp.Choices[0].Message.Content)
	if cg.llmLog != nil {
		cg.llmLog.LogLLMResponse(term, text)
	}
	if text == "" {
		cg.logFallback(term, errors.New("empty response"))
		return failureSentence(term, meaning)
	}

	VerboseLog("Example sentence for %q in %s", term, time.Since(start))
	return text
}

func (cg *ContextGenerator) logFallback(term string, cause error) {
	if !errors.Is(cause, ErrAIUnavailable) {
		logger.WithError(cause).WithField("term", term).Warn("example sentence fell back to template")
	}
	if cg.llmLog != nil {
		cg.llmLog.LogFallback(term, cause)
	}
}

func buildContextPrompt(term, meaning string) string {
	var sb strings.Builder
	sb.WriteString("Erstelle einen kurzen, realistischen klinischen Satz auf Deutsch (für einen Arztbrief oder Anamnese).\n")
	sb.WriteString(fmt.Sprintf("Verwende den Fachbegriff '%s' (Bedeutung: %s).\n", term, meaning))
	sb.WriteString("Der Satz soll medizinisch professionell klingen. Gib NUR den Satz aus.\n")
	return sb.String()
}

// firstLine returns the first non-blank line without surrounding quotes
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "\"„“”")
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// FallbackSentence is used when no service is configured
func FallbackSentence(term, meaning string) string {
	return fmt.Sprintf("Beispiel: Der Begriff '%s' bedeutet '%s'.", term, meaning)
}

func failureSentence(term, meaning string) string {
	return fmt.Sprintf("Klinischer Kontext konnte nicht geladen werden. Der Begriff '%s' bedeutet '%s'.", term, meaning)
}
