package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/minios-linux/transx/langmeta"
)

// DefaultSystemPrompt instructs the model to translate one UI string.
// {{sourceLang}} and {{targetLang}} are replaced with language names.
const DefaultSystemPrompt = `You are a professional translator specializing in software localization. You are translating a single UI string for a software application from {{sourceLang}} into {{targetLang}}.

- Translate for naturalness and fluency, not word for word.
- Use IT terminology that is standard in {{targetLang}}.
- Preserve all placeholders exactly as-is: %s, %d, %(name)s, {0}, {name}, $name.
- Preserve newlines and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- Return ONLY the translated text, with no quotes, explanations or markdown.`

// defaultRateLimitDelay is used when a 429 response names no delay.
const defaultRateLimitDelay = 65 * time.Second

// APIError is returned for non-success HTTP responses.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ---------------------------------------------------------------------------
// Rate limit state (global pause for parallel workers)
// ---------------------------------------------------------------------------

type rateLimitState struct {
	mu       sync.Mutex
	paused   int32 // atomic: 1 = paused
	pauseEnd time.Time
}

func (r *rateLimitState) isPaused() bool {
	return atomic.LoadInt32(&r.paused) == 1
}

func (r *rateLimitState) pause(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if end := time.Now().Add(d); end.After(r.pauseEnd) {
		r.pauseEnd = end
	}
	atomic.StoreInt32(&r.paused, 1)
}

func (r *rateLimitState) unpause() {
	atomic.StoreInt32(&r.paused, 0)
}

// waitIfPaused blocks until the rate limit pause is over.
func (r *rateLimitState) waitIfPaused(ctx context.Context) error {
	for r.isPaused() {
		r.mu.Lock()
		remaining := time.Until(r.pauseEnd)
		r.mu.Unlock()
		if remaining <= 0 {
			r.unpause()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(remaining, 100*time.Millisecond)):
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// HTTP translator
// ---------------------------------------------------------------------------

// HTTPTranslator translates strings through a remote LLM API. It is
// safe for concurrent use; a 429 from one request pauses all of them.
type HTTPTranslator struct {
	prov       Provider
	client     *http.Client
	limiter    *rate.Limiter
	pause      *rateLimitState
	maxRetries int
	backoff    time.Duration
	prompt     string
	logger     zerolog.Logger
}

// HTTPOption configures an HTTPTranslator.
type HTTPOption func(*HTTPTranslator)

// WithMaxRetries sets how often a request is retried on 429, 5xx and
// network errors. Zero or less keeps the default of 3.
func WithMaxRetries(n int) HTTPOption {
	return func(t *HTTPTranslator) {
		if n > 0 {
			t.maxRetries = n
		}
	}
}

// WithRequestsPerSecond paces outgoing requests. Zero means unlimited.
func WithRequestsPerSecond(rps float64) HTTPOption {
	return func(t *HTTPTranslator) {
		if rps > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			t.limiter = nil
		}
	}
}

// WithBackoff sets the base delay for exponential backoff (default 1s).
func WithBackoff(d time.Duration) HTTPOption {
	return func(t *HTTPTranslator) {
		if d > 0 {
			t.backoff = d
		}
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) HTTPOption {
	return func(t *HTTPTranslator) {
		if prompt != "" {
			t.prompt = prompt
		}
	}
}

// WithHTTPClient replaces the client built from the provider's proxy
// and timeout settings.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTranslator) {
		if c != nil {
			t.client = c
		}
	}
}

// WithLogger replaces the default sub-logger.
func WithLogger(l zerolog.Logger) HTTPOption {
	return func(t *HTTPTranslator) { t.logger = l }
}

// NewHTTP returns a translator for prov.
func NewHTTP(prov Provider, opts ...HTTPOption) *HTTPTranslator {
	t := &HTTPTranslator{
		prov:       prov,
		client:     makeHTTPClient(prov.Proxy, prov.Timeout),
		pause:      &rateLimitState{},
		maxRetries: 3,
		backoff:    time.Second,
		prompt:     DefaultSystemPrompt,
		logger:     log.With().Str("sys", "translate").Str("provider", prov.ID).Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Provider returns the provider configuration in use.
func (t *HTTPTranslator) Provider() Provider {
	return t.prov
}

// Translate sends text to the provider and returns the translation.
// Blank text is returned as is. Leading and trailing whitespace of the
// source is carried over to the result.
func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	core := strings.TrimSpace(text)
	if core == "" {
		return text, nil
	}

	system := strings.NewReplacer(
		"{{sourceLang}}", langName(sourceLang),
		"{{targetLang}}", langName(targetLang),
	).Replace(t.prompt)

	out, err := t.call(ctx, system, core)
	if err != nil {
		return "", err
	}
	out = stripCodeFence(strings.TrimSpace(out))
	if out == "" {
		return "", fmt.Errorf("%s: empty translation for %q", t.prov.Name, truncate(core, 60))
	}

	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]
	return lead + out + trail, nil
}

func langName(code string) string {
	if code == "" || strings.EqualFold(code, "auto") {
		return "the source language"
	}
	return langmeta.EnglishName(code)
}

func (t *HTTPTranslator) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	endpoint, headers, body, err := buildHTTPRequest(t.prov, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		// Wait if globally paused (rate limit from another worker)
		if err := t.pause.waitIfPaused(ctx); err != nil {
			return "", err
		}
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		t.logger.Debug().Int("attempt", attempt+1).Str("endpoint", endpoint).Msg("POST")

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("%s: API request failed: %w", t.prov.Name, err)
			if attempt < t.maxRetries {
				if err := sleep(ctx, t.backoffFor(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", lastErr
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := parseRetryDelay(resp.Header, respBody, 5*t.backoff)
			lastErr = &APIError{Provider: t.prov.Name, StatusCode: resp.StatusCode, Message: apiErrorMessage(respBody)}
			if attempt < t.maxRetries {
				t.logger.Warn().
					Dur("delay", delay).
					Int("attempt", attempt+1).
					Int("max_retries", t.maxRetries).
					Msg("rate limited, pausing requests")
				// Globally pause all workers
				t.pause.pause(delay)
				if err := sleep(ctx, delay); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("rate limited after %d retries: %w", t.maxRetries, lastErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = &APIError{Provider: t.prov.Name, StatusCode: resp.StatusCode, Message: apiErrorMessage(respBody)}
			if attempt < t.maxRetries && resp.StatusCode >= 500 {
				if err := sleep(ctx, t.backoffFor(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", lastErr
		}

		return extractResponseText(respBody)
	}

	return "", fmt.Errorf("exhausted all %d retries: %w", t.maxRetries, lastErr)
}

func (t *HTTPTranslator) backoffFor(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * t.backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// An explicit proxy wins over HTTP_PROXY/HTTPS_PROXY
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request builders
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for prov.
// Gemini uses its native generateContent API; everything else speaks
// OpenAI chat/completions.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	base := strings.TrimRight(prov.BaseURL, "/")

	var (
		endpoint string
		body     []byte
		err      error
	)
	switch prov.ID {
	case ProviderGemini:
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.3)
	default:
		endpoint = base
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			endpoint += "/chat/completions"
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, 0.3)
	}
	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// responseTextPaths are tried in order against a success response.
var responseTextPaths = []string{
	"choices.0.message.content",         // OpenAI chat
	"candidates.0.content.parts.0.text", // Gemini
	`content.#(type=="text").text`,      // Anthropic-style content blocks
	"message.content",                   // Ollama native chat
	"response",                          // Ollama generate
}

// extractResponseText returns the generated text from any known
// response format.
func extractResponseText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid JSON response: %s", truncate(string(body), 500))
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		return "", fmt.Errorf("API error: %s", apiErrorMessage(body))
	}
	for _, path := range responseTextPaths {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String {
			return r.String(), nil
		}
	}
	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// apiErrorMessage returns error.message from a JSON error body, or the
// truncated body.
func apiErrorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	if e := gjson.GetBytes(body, "error"); e.Type == gjson.String {
		return e.String()
	}
	return truncate(strings.TrimSpace(string(body)), 500)
}

// parseRetryDelay returns how long to wait after a 429. Google's
// RetryInfo detail and the Retry-After header are honored, plus buffer.
// Without either the default is 65s.
func parseRetryDelay(h http.Header, body []byte, buffer time.Duration) time.Duration {
	var delay time.Duration
	found := false
	gjson.GetBytes(body, "error.details").ForEach(func(_, detail gjson.Result) bool {
		if d, err := time.ParseDuration(detail.Get("retryDelay").String()); err == nil {
			delay, found = d, true
			return false
		}
		return true
	})
	if !found {
		if secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After"))); err == nil && secs >= 0 {
			delay, found = time.Duration(secs)*time.Second, true
		}
	}
	if !found {
		return defaultRateLimitDelay
	}
	return delay + buffer
}

var markdownCodeBlock = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*\\s*(.*?)\\s*```$")

func stripCodeFence(s string) string {
	if m := markdownCodeBlock.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
