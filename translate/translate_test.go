package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minios-linux/transx/config"
	po "github.com/minios-linux/transx/pofile"
)

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

func TestDummy(t *testing.T) {
	got, err := Dummy{}.Translate(context.Background(), "Hello", "auto", "de")
	if err != nil || got != "Hello" {
		t.Errorf("Dummy = %q, %v", got, err)
	}
}

func TestNew(t *testing.T) {
	tr, err := New(config.Translator{})
	if err != nil {
		t.Fatalf("New(empty): %v", err)
	}
	if _, ok := tr.(Dummy); !ok {
		t.Errorf("empty provider gave %T, want Dummy", tr)
	}

	if _, err := New(config.Translator{Provider: "deepl"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(config.Translator{Provider: "openai"}); err == nil {
		t.Error("expected error for openai without API key")
	}

	tr, err = New(config.Translator{Provider: "Ollama", Model: "qwen2", MaxRetries: 5})
	if err != nil {
		t.Fatalf("New(ollama): %v", err)
	}
	h, ok := tr.(*HTTPTranslator)
	if !ok {
		t.Fatalf("ollama gave %T, want *HTTPTranslator", tr)
	}
	prov := h.Provider()
	if prov.Model != "qwen2" || prov.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("provider = %+v", prov)
	}
	if h.maxRetries != 5 {
		t.Errorf("maxRetries = %d, want 5", h.maxRetries)
	}
}

// ---------------------------------------------------------------------------
// HTTP translator
// ---------------------------------------------------------------------------

func TestHTTPTranslator_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-test" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		} else {
			if !strings.Contains(req.Messages[0].Content, "German") {
				t.Errorf("system prompt does not name the target language: %q", req.Messages[0].Content)
			}
			if req.Messages[1].Content != "Open file" {
				t.Errorf("user prompt = %q", req.Messages[1].Content)
			}
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + "```\\nDatei öffnen\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderOpenAI, Name: "OpenAI", BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "gpt-test"})
	got, err := tr.Translate(context.Background(), "  Open file\n", "auto", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "  Datei öffnen\n" {
		t.Errorf("got %q", got)
	}
}

func TestHTTPTranslator_Gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "gkey" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Ouvrir"}]}}]}`))
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderGemini, Name: "Gemini", BaseURL: srv.URL, APIKey: "gkey", Model: "gemini-test"})
	got, err := tr.Translate(context.Background(), "Open", "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Ouvrir" {
		t.Errorf("got %q", got)
	}
}

func TestHTTPTranslator_BlankTextSkipsRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderOllama, BaseURL: srv.URL})
	got, err := tr.Translate(context.Background(), " \n", "auto", "de")
	if err != nil || got != " \n" {
		t.Errorf("got %q, %v", got, err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("calls = %d, want 0", atomic.LoadInt32(&calls))
	}
}

func TestHTTPTranslator_RetriesAfter429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hallo"}}`))
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderOllama, Name: "Ollama", BaseURL: srv.URL}, WithBackoff(time.Millisecond))
	got, err := tr.Translate(context.Background(), "Hello", "auto", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Hallo" {
		t.Errorf("got %q", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", atomic.LoadInt32(&calls))
	}
}

func TestHTTPTranslator_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderOllama, Name: "Ollama", BaseURL: srv.URL},
		WithBackoff(time.Millisecond), WithMaxRetries(2))
	_, err := tr.Translate(context.Background(), "Hello", "auto", "de")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Message != "overloaded" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", atomic.LoadInt32(&calls))
	}
}

func TestHTTPTranslator_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	tr := NewHTTP(Provider{ID: ProviderOpenAI, Name: "OpenAI", BaseURL: srv.URL, APIKey: "x"}, WithBackoff(time.Millisecond))
	_, err := tr.Translate(context.Background(), "Hello", "auto", "de")
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", atomic.LoadInt32(&calls))
	}
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func TestParseRetryDelay(t *testing.T) {
	body := []byte(`{"error":{"code":429,"details":[{"@type":"type.googleapis.com/google.rpc.QuotaFailure"},{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`)
	if got := parseRetryDelay(http.Header{}, body, 5*time.Second); got != 35*time.Second {
		t.Errorf("RetryInfo delay = %v, want 35s", got)
	}

	h := http.Header{}
	h.Set("Retry-After", "2")
	if got := parseRetryDelay(h, []byte(`{}`), time.Second); got != 3*time.Second {
		t.Errorf("Retry-After delay = %v, want 3s", got)
	}

	if got := parseRetryDelay(http.Header{}, []byte(`not json`), time.Second); got != defaultRateLimitDelay {
		t.Errorf("default delay = %v", got)
	}
}

func TestExtractResponseText(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"choices":[{"message":{"content":"a"}}]}`, "a"},
		{`{"candidates":[{"content":{"parts":[{"text":"b"}]}}]}`, "b"},
		{`{"content":[{"type":"thinking","text":"x"},{"type":"text","text":"c"}]}`, "c"},
		{`{"message":{"content":"d"}}`, "d"},
		{`{"response":"e"}`, "e"},
	}
	for _, tc := range cases {
		got, err := extractResponseText([]byte(tc.body))
		if err != nil || got != tc.want {
			t.Errorf("extractResponseText(%s) = %q, %v; want %q", tc.body, got, err, tc.want)
		}
	}

	for _, body := range []string{`{"error":{"message":"quota"}}`, `{"foo":1}`, `<html>`} {
		if _, err := extractResponseText([]byte(body)); err == nil {
			t.Errorf("extractResponseText(%s): expected error", body)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("```text\nHallo\n```"); got != "Hallo" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("Hallo `Welt`"); got != "Hallo `Welt`" {
		t.Errorf("got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

type tagTranslator struct{}

func (tagTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	return "[" + source + ">" + target + "] " + text, nil
}

func writePO(t *testing.T, path, lang string) {
	t.Helper()
	cat := po.New()
	if lang != "" {
		cat.Metadata.Set(po.FieldLanguage, lang)
	}
	if _, err := cat.AddMessage("Open", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.AddMessage("Done", "", "done already"); err != nil {
		t.Fatal(err)
	}
	if err := cat.Save(path); err != nil {
		t.Fatal(err)
	}
}

func TestTranslateFiles(t *testing.T) {
	dir := t.TempDir()
	dePath := filepath.Join(dir, "de", "LC_MESSAGES", "app.po")
	frPath := filepath.Join(dir, "fr", "LC_MESSAGES", "app.po")
	writePO(t, dePath, "")
	writePO(t, frPath, "fr_CA")

	results, err := TranslateFiles(context.Background(), tagTranslator{}, []string{dePath, frPath}, 2, WithSourceLang("en"))
	if err != nil {
		t.Fatalf("TranslateFiles: %v", err)
	}
	if len(results) != 2 || results[0].Path != dePath || results[1].Path != frPath {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Lang != "de" || results[1].Lang != "fr_CA" {
		t.Errorf("langs = %q, %q", results[0].Lang, results[1].Lang)
	}
	for _, r := range results {
		if r.Translated != 1 || r.Remaining != 0 {
			t.Errorf("%s: %+v", r.Path, r)
		}
	}

	de, err := po.ParseFile(dePath)
	if err != nil {
		t.Fatal(err)
	}
	if got := de.Language(); got != "de" {
		t.Errorf("Language header = %q", got)
	}
	if got := de.Get("Open", "").MsgStr; got != "[en>de] Open" {
		t.Errorf("Open = %q", got)
	}
	if got := de.Get("Done", "").MsgStr; got != "done already" {
		t.Errorf("existing translation changed: %q", got)
	}

	if _, err := TranslateFiles(context.Background(), tagTranslator{}, []string{filepath.Join(dir, "missing.po")}, 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLangFromPath(t *testing.T) {
	cases := map[string]string{
		"locales/pt_BR/LC_MESSAGES/app.po": "pt_BR",
		"po/de.po":                         "de",
		"po/messages.pot":                  "",
	}
	for path, want := range cases {
		if got := LangFromPath(filepath.FromSlash(path)); got != want {
			t.Errorf("LangFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
