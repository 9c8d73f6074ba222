package openai

import (
    "context"
    "errors"
    "strings"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"
)

// Client calls the OpenAI Chat Completions API.
type Client struct {
    key         string
    model       string
    temperature float64
    maxTokens   int
    cli         openai.Client
    log         zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4.1-mini" }
    cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
    return &Client{
        key:         cfg.OpenAIKey,
        model:       model,
        temperature: cfg.OpenAITemperature,
        maxTokens:   cfg.OpenAIMaxTokens,
        cli:         cli,
        log:         log,
    }
}

// Generate runs one completion with the given system and user prompts and
// returns the raw assistant text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("openai: missing key") }
    c.log.Info().Str("model", c.model).Msg("openai Generate call")
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage(systemPrompt),
            openai.UserMessage(userPrompt),
        },
        Temperature: openai.Float(c.temperature),
    }
    if c.maxTokens > 0 { params.MaxTokens = openai.Int(int64(c.maxTokens)) }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return resp.Choices[0].Message.Content, nil
}
