package rewriter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"murmur/style"
)

func chatReply(text string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func testRewriter(url string) *OpenAI {
	return newOpenAI("test-key", "gpt-4o-mini", 2*time.Second, url)
}

func TestRewriteSuccess(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(chatReply("  Rewritten text.  ")))
	}))
	defer srv.Close()

	res := testRewriter(srv.URL).Rewrite(context.Background(), "um so like the meeting is at 3pm", style.Formal)
	if !res.Ok {
		t.Fatalf("Ok=false: %v", res.Err)
	}
	if res.Text != "Rewritten text." {
		t.Fatalf("text = %q", res.Text)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("temperature = %v", captured.Temperature)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %d", len(captured.Messages))
	}
	sys := captured.Messages[0]
	if sys.Role != "system" || !strings.Contains(sys.Content, style.Formal.Instruction()) {
		t.Errorf("system message missing style instruction")
	}
	if !strings.Contains(sys.Content, "Preserve names, dates, numbers and URLs") {
		t.Errorf("system message missing fact-preservation rule")
	}
	user := captured.Messages[1]
	if user.Role != "user" || user.Content != "um so like the meeting is at 3pm" {
		t.Errorf("user message = %+v", user)
	}
	if captured.MaxTokens < 200 || captured.MaxTokens > 4096 {
		t.Errorf("max_tokens = %d out of bounds", captured.MaxTokens)
	}
}

func TestRewriteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(429)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	res := testRewriter(srv.URL).Rewrite(context.Background(), "text", style.Plain)
	if res.Ok {
		t.Fatal("Ok=true for 429")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "rate limited") {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestRewriteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(chatReply("late")))
	}))
	defer srv.Close()

	r := newOpenAI("k", "m", 50*time.Millisecond, srv.URL)
	start := time.Now()
	res := r.Rewrite(context.Background(), "text", style.Plain)
	if res.Ok {
		t.Fatal("Ok=true after timeout")
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestRewriteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if res := testRewriter(srv.URL).Rewrite(context.Background(), "text", style.Plain); res.Ok {
		t.Fatal("Ok=true for malformed body")
	}
}

func TestRewriteEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply("   ")))
	}))
	defer srv.Close()

	if res := testRewriter(srv.URL).Rewrite(context.Background(), "text", style.Plain); res.Ok {
		t.Fatal("Ok=true for whitespace-only completion")
	}
}

func TestDisabledAlwaysFallsBack(t *testing.T) {
	res := Disabled{}.Rewrite(context.Background(), "anything", style.Notes)
	if res.Ok {
		t.Fatal("disabled rewriter reported success")
	}
}

func TestMaxTokensBounds(t *testing.T) {
	if got := maxTokensFor("hi"); got != 200 {
		t.Fatalf("short input: %d", got)
	}
	if got := maxTokensFor(strings.Repeat("a", 100000)); got != 4096 {
		t.Fatalf("long input: %d", got)
	}
}

func TestFakePreservesFacts(t *testing.T) {
	f := &FakeRewriter{Ok: true}
	in := "call Maria on 2026-03-01 about https://example.com invoice 4521"
	res := f.Rewrite(context.Background(), in, style.Plain)
	for _, fact := range []string{"Maria", "2026-03-01", "https://example.com", "4521"} {
		if !strings.Contains(res.Text, fact) {
			t.Fatalf("fact %q dropped", fact)
		}
	}
}
