// Package oracle wraps the external language-model collaborators: chunk
// entity/relationship extraction and streamed answer generation. Both go
// through an OpenAI-compatible chat completions API.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/starford/ansuz/internal/models"
)

// Generation parameters. Extraction runs near-deterministic; answers get a
// little more room.
const (
	extractionTemperature = 0.1
	extractionMaxTokens   = 2500
	answerTemperature     = 0.3
	answerMaxTokens       = 800
)

// Config selects the upstream endpoint and model.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client talks to the extraction and generation oracles.
type Client struct {
	api   *openai.Client
	model string
	key   string
}

// New creates a Client. An empty API key is allowed here; callers must
// check Configured before scheduling work that needs the oracle.
func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(oc),
		model: cfg.Model,
		key:   cfg.APIKey,
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.key != ""
}

// ExtractChunk asks the oracle for the entities and relationships of one
// text chunk. A transport error or a non-parseable response is returned as
// an error; callers treat any error as "this chunk contributes nothing".
func (c *Client) ExtractChunk(ctx context.Context, chunk string) (*models.ChunkExtraction, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt + chunk},
		},
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: extraction call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("oracle: extraction returned no choices")
	}
	return ParseExtraction(resp.Choices[0].Message.Content)
}

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// ParseExtraction decodes the oracle's JSON reply, tolerating a Markdown
// code fence around it.
func ParseExtraction(raw string) (*models.ChunkExtraction, error) {
	raw = strings.TrimSpace(raw)
	raw = fenceOpenRe.ReplaceAllString(raw, "")
	raw = fenceCloseRe.ReplaceAllString(raw, "")

	var out models.ChunkExtraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("oracle: parse extraction: %w", err)
	}
	return &out, nil
}

// StreamAnswer generates an answer constrained to graphContext, invoking
// onToken for every streamed token in arrival order. It returns the full
// answer (the concatenation of all tokens). A call or mid-stream failure
// is returned after zero or more onToken invocations; partial tokens are
// not retracted.
func (c *Client) StreamAnswer(ctx context.Context, graphContext, query string, onToken func(string) error) (string, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerSystem},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context from knowledge graph:\n\n%s\n\nQuestion: %s", graphContext, query)},
		},
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("oracle: answer call: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("oracle: answer stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		full.WriteString(token)
		if err := onToken(token); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}
