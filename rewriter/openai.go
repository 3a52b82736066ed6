package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"murmur/log"
	"murmur/style"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// The rewrite must restyle, never embellish. The transcript is the only
// source of facts.
const systemPrompt = `You rewrite dictated speech. Rules:
- Do not add any information that is not in the transcript.
- Preserve names, dates, numbers and URLs exactly as spoken.
- If a phrase is unclear, keep the speaker's wording rather than guessing.
- Fix obvious speech artifacts: filler words, false starts, repetitions.
- Return only the rewritten text, with no preamble or commentary.`

type OpenAI struct {
	apiKey  string
	model   string
	timeout time.Duration
	apiURL  string
	client  *TracedClient
}

func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	return newOpenAI(apiKey, model, timeout, defaultAPIURL)
}

func newOpenAI(apiKey, model string, timeout time.Duration, apiURL string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		apiURL:  apiURL,
		client:  NewTracedClient(apiURL),
	}
}

func (o *OpenAI) Name() string { return "openai/" + o.model }

// WarmConnection pre-establishes TLS so the first session does not pay
// for the handshake.
func (o *OpenAI) WarmConnection() {
	if d := o.client.Warm(); d > 0 {
		log.Info(fmt.Sprintf("rewrite connection warmed, tls %dms", d.Milliseconds()))
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Rewrite makes a single bounded-time attempt. Every failure path returns
// Ok=false so the caller falls back to the raw transcript.
func (o *OpenAI) Rewrite(ctx context.Context, transcript string, st style.Style) Result {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt + "\n\n" + st.Instruction()},
			{Role: "user", Content: transcript},
		},
		Temperature: 0.3,
		MaxTokens:   maxTokensFor(transcript),
	})
	if err != nil {
		return Result{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("rewrite request: %w", err)}
	}

	log.Rewrite(o.model, log.RewriteMetrics{
		DNSMs:   float64(resp.Metrics.DNS.Microseconds()) / 1000,
		TLSMs:   float64(resp.Metrics.TLS.Microseconds()) / 1000,
		TTFBMs:  float64(resp.Metrics.TTFB.Microseconds()) / 1000,
		TotalMs: float64(resp.Metrics.Total.Microseconds()) / 1000,
		Reused:  resp.Metrics.ConnReused,
	})

	if resp.StatusCode != 200 {
		return Result{Err: fmt.Errorf("rewrite API error %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))}
	}

	var cResp chatResponse
	if err := json.Unmarshal(resp.Body, &cResp); err != nil {
		return Result{Err: fmt.Errorf("rewrite response parse error: %w", err)}
	}
	if len(cResp.Choices) == 0 {
		return Result{Err: fmt.Errorf("rewrite response has no choices")}
	}

	text := strings.TrimSpace(cResp.Choices[0].Message.Content)
	if text == "" {
		return Result{Err: fmt.Errorf("rewrite returned empty text")}
	}
	return Result{Text: text, Ok: true}
}

// maxTokensFor bounds the completion relative to the input so a runaway
// model cannot pad a short dictation into an essay.
func maxTokensFor(transcript string) int {
	// Rough 4 chars per token, with headroom for restructuring.
	tokens := len(transcript)/2 + 100
	if tokens < 200 {
		tokens = 200
	}
	if tokens > 4096 {
		tokens = 4096
	}
	return tokens
}

func apiErrorMessage(body []byte) string {
	var cResp chatResponse
	if err := json.Unmarshal(body, &cResp); err == nil && cResp.Error != nil {
		return cResp.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
