// Package llm implements the client for the external text-completion
// service. It builds a bounded context window from persisted conversation
// history, performs the synchronous HTTP call, and extracts the reply text
// from the response envelope.
//
// The upstream envelope is not fixed: depending on the deployed backend the
// reply may arrive as a top-level "content" or "response" field, nested
// under "result", or in an OpenAI-style "choices" array. ExtractReply tries
// each shape in order and falls back to a fixed apology string when none
// match, so a structurally surprising 2xx never fails the request.
//
// Service-level failures (non-2xx, or an "error" field in the payload) are
// surfaced as *ServiceUnavailableError carrying the upstream status and
// whatever diagnostic text the provider supplied, so handlers can map them
// distinctly from generic failures.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-ai-chat/internal/domain"
)

// FallbackReply is returned when a successful response carries no
// recognizable reply field.
const FallbackReply = "Sorry, I encountered an error. Please try again."

// defaultPersona is the system turn prepended to every context window.
const defaultPersona = "You are a helpful, concise assistant. Answer the user's questions directly."

// ServiceUnavailableError indicates the completion backend rejected or
// failed the request. StatusCode is the upstream HTTP status (0 when the
// call never completed); Detail is the provider's diagnostic text.
type ServiceUnavailableError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *ServiceUnavailableError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("completion service unavailable (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("completion service unavailable (status %d): %s", e.StatusCode, e.Detail)
}

// Turn is a single {role, content} element of the completion request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures a Client.
type Options struct {
	BaseURL     string        // completion endpoint base, e.g. "http://localhost:8000"
	APIKey      string        // bearer token; empty disables the Authorization header
	Model       string        // model identifier passed upstream
	Timeout     time.Duration // per-request timeout
	ContextSize int           // max history turns included; <=0 uses 10
	Persona     string        // system instruction; empty uses defaultPersona
	RPS         float64       // outbound call budget (tokens/second); <=0 disables
	Burst       int           // outbound burst size
}

// Client calls the external completion service. Safe for concurrent use.
type Client struct {
	http        *resty.Client
	model       string
	contextSize int
	persona     string
	limiter     *rate.Limiter
}

// New constructs a Client from Options.
func New(opts Options) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		hc.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		hc.SetAuthToken(opts.APIKey)
	}

	n := opts.ContextSize
	if n <= 0 {
		n = 10
	}
	persona := opts.Persona
	if persona == "" {
		persona = defaultPersona
	}

	var lim *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		http:        hc,
		model:       opts.Model,
		contextSize: n,
		persona:     persona,
		limiter:     lim,
	}
}

// BuildContext maps persisted history (already decoded) plus the new user
// text into the turn sequence sent upstream: persona first, then up to
// contextSize history turns in chronological order, then the new text as the
// final user turn. The "ai" sender maps to the assistant role.
func (c *Client) BuildContext(history []domain.Message, userText string) []Turn {
	turns := make([]Turn, 0, len(history)+2)
	turns = append(turns, Turn{Role: "system", Content: c.persona})

	start := 0
	if len(history) > c.contextSize {
		start = len(history) - c.contextSize
	}
	for _, m := range history[start:] {
		role := "user"
		if m.Sender == domain.SenderAI {
			role = "assistant"
		}
		turns = append(turns, Turn{Role: role, Content: m.Content})
	}

	return append(turns, Turn{Role: "user", Content: userText})
}

// Complete sends the conversation context to the completion endpoint and
// returns the reply text. history must already be decoded.
func (c *Client) Complete(ctx context.Context, history []domain.Message, userText string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &ServiceUnavailableError{Detail: "outbound budget exhausted: " + err.Error()}
		}
	}

	body := map[string]any{
		"model":       c.model,
		"messages":    c.BuildContext(history, userText),
		"max_tokens":  1000,
		"temperature": 0.9,
		"stream":      false,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", &ServiceUnavailableError{Detail: err.Error()}
	}

	if resp.IsError() {
		detail := upstreamDetail(resp.Body())
		log.Error().
			Int("status", resp.StatusCode()).
			Str("detail", detail).
			Msg("completion backend error")
		return "", &ServiceUnavailableError{StatusCode: resp.StatusCode(), Detail: detail}
	}

	reply, err := ExtractReply(resp.Body())
	if err != nil {
		return "", &ServiceUnavailableError{StatusCode: resp.StatusCode(), Detail: err.Error()}
	}
	return reply, nil
}

// envelope covers the reply shapes the deployed backends are known to emit.
type envelope struct {
	Content  string `json:"content"`
	Response string `json:"response"`
	Error    string `json:"error"`
	Result   *struct {
		Content  string `json:"content"`
		Response string `json:"response"`
	} `json:"result"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractReply pulls the reply text out of a successful response body,
// trying the known field names in order. An "error" field wins over any
// reply field; an unrecognized but well-formed body yields FallbackReply.
func ExtractReply(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("malformed completion response: %w", err)
	}
	if env.Error != "" {
		return "", fmt.Errorf("completion service error: %s", env.Error)
	}
	switch {
	case env.Content != "":
		return env.Content, nil
	case env.Response != "":
		return env.Response, nil
	case env.Result != nil && env.Result.Content != "":
		return env.Result.Content, nil
	case env.Result != nil && env.Result.Response != "":
		return env.Result.Response, nil
	case len(env.Choices) > 0 && env.Choices[0].Message.Content != "":
		return env.Choices[0].Message.Content, nil
	}
	return FallbackReply, nil
}

// upstreamDetail extracts a human-readable diagnostic from an error payload.
// Providers disagree on the shape, so try a couple before giving up.
func upstreamDetail(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return strings.TrimSpace(string(body))
	}
	if s, ok := m["error"].(string); ok && s != "" {
		return s
	}
	if e, ok := m["error"].(map[string]any); ok {
		if s, ok := e["message"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := m["detail"].(string); ok && s != "" {
		return s
	}
	return "backend service error"
}
