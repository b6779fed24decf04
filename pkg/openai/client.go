// Package openai wraps the OpenAI chat-completions API as the
// generation collaborator for the gatekeeper. Supports multiple API
// keys (comma-separated, least-failures-first rotation) and a
// prioritized model fallback list.
package openai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"haven/pkg/session"
)

type ModelConfig struct {
	ID        string
	MaxTokens int
}

var DefaultModels = []ModelConfig{
	{ID: "gpt-4o", MaxTokens: 400},
	{ID: "gpt-4o-mini", MaxTokens: 400},
}

// KeyState tracks the health of an API key.
type KeyState struct {
	Key          string
	FailureCount int
	LastUsed     time.Time
	LastSuccess  time.Time
}

type Client struct {
	keys        []*KeyState
	keyMu       sync.RWMutex
	clients     map[string]openai.Client
	clientsMu   sync.RWMutex
	temperature float64
	topP        float64
	models      []ModelConfig
	baseURL     string
}

// NewClient parses comma-separated API keys. Keys are rotated based on
// failure count (least failures first).
func NewClient(apiKeys string, temperature, topP float64, models []ModelConfig) *Client {
	if len(models) == 0 {
		models = DefaultModels
	}

	keyStrings := strings.Split(apiKeys, ",")
	keys := make([]*KeyState, 0, len(keyStrings))
	for _, k := range keyStrings {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, &KeyState{Key: k})
		}
	}

	if len(keys) == 0 {
		log.Println("Warning: No OpenAI API keys provided")
	} else {
		log.Printf("Loaded %d OpenAI API key(s)", len(keys))
	}

	return &Client{
		keys:        keys,
		clients:     make(map[string]openai.Client),
		temperature: temperature,
		topP:        topP,
		models:      models,
	}
}

// SetBaseURL points the client at a compatible endpoint; used by tests.
func (c *Client) SetBaseURL(url string) {
	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()
	c.baseURL = url
	c.clients = make(map[string]openai.Client)
}

func (c *Client) getClient(key string) openai.Client {
	c.clientsMu.RLock()
	if client, ok := c.clients[key]; ok {
		c.clientsMu.RUnlock()
		return client
	}
	c.clientsMu.RUnlock()

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	client := openai.NewClient(opts...)
	c.clients[key] = client
	return client
}

func (c *Client) getBestKey() *KeyState {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()

	if len(c.keys) == 0 {
		return nil
	}

	best := c.keys[0]
	for _, k := range c.keys[1:] {
		if k.FailureCount < best.FailureCount {
			best = k
		}
	}
	return best
}

func (c *Client) recordSuccess(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.LastSuccess = time.Now()
	key.LastUsed = time.Now()
	if key.FailureCount > 0 {
		key.FailureCount--
	}
}

func (c *Client) recordFailure(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.FailureCount++
	key.LastUsed = time.Now()
}

// ChatCompletion runs the message sequence through the prioritized
// model list, rotating keys on rate-limit/auth failures. The caller's
// context bounds the whole attempt.
func (c *Client) ChatCompletion(ctx context.Context, messages []session.Message) (string, error) {
	keyState := c.getBestKey()
	if keyState == nil {
		return "", fmt.Errorf("no API keys configured")
	}

	chatMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			chatMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			chatMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	var lastErr error
	for _, modelConf := range c.models {
		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(modelConf.ID),
			Messages:    chatMessages,
			Temperature: openai.Float(c.temperature),
			TopP:        openai.Float(c.topP),
			MaxTokens:   openai.Int(int64(modelConf.MaxTokens)),
		}

		start := time.Now()
		client := c.getClient(keyState.Key)
		resp, err := client.Chat.Completions.New(ctx, params)

		if err != nil {
			log.Printf("Model %s error: %v", modelConf.ID, err)
			lastErr = err

			if isRateLimitOrAuthError(err) {
				c.recordFailure(keyState)
				nextKey := c.getBestKey()
				if nextKey != nil && nextKey != keyState {
					log.Printf("Key rate limited/auth failed, trying another key...")
					keyState = nextKey
					client = c.getClient(keyState.Key)
					resp, err = client.Chat.Completions.New(ctx, params)
				}
			}
			if err != nil {
				if ctx.Err() != nil {
					return "", fmt.Errorf("generation timed out: %w", ctx.Err())
				}
				continue
			}
		}

		if resp == nil || len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from model %s", modelConf.ID)
			continue
		}

		c.recordSuccess(keyState)
		log.Printf("Model %s success (took %v, input_tokens=%d, output_tokens=%d)",
			modelConf.ID, time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	c.recordFailure(keyState)
	return "", fmt.Errorf("all models exhausted. Last error: %w", lastErr)
}

func isRateLimitOrAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "unauthorized")
}
