package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/classifier/internal/model"
)

// fakeServer answers the two OpenAI endpoints the client uses.
func fakeServer(t *testing.T, content string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model"}]}`))
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			for _, m := range req.Messages {
				prompts = append(prompts, m.Content)
			}
			resp := map[string]any{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				}},
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func testResults() (model.Test, []model.Result) {
	test := model.Test{ID: 1, Name: "Shapes"}
	return test, []model.Result{
		{ImageID: 1, SelectedLabel: "Circle", CorrectLabel: "Circle", IsCorrect: true},
		{ImageID: 2, SelectedLabel: "Triangle", CorrectLabel: "Square"},
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New("http://localhost", "key", ""); err == nil {
		t.Error("expected error for empty model name")
	}
}

func TestPing(t *testing.T) {
	srv, _ := fakeServer(t, "")
	c, err := New(srv.URL+"/v1", "key", "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCommentary(t *testing.T) {
	srv, prompts := fakeServer(t, `{"commentary": "  Good work, watch squares vs triangles.  "}`)
	c, _ := New(srv.URL+"/v1", "key", "test-model")
	test, results := testResults()

	got, err := c.Commentary(context.Background(), test, results, "en")
	if err != nil {
		t.Fatalf("Commentary: %v", err)
	}
	if got != "Good work, watch squares vs triangles." {
		t.Errorf("Commentary = %q", got)
	}
	if len(*prompts) != 1 || !strings.Contains((*prompts)[0], "1 correct out of 2 (50%)") {
		t.Errorf("unexpected prompt sent: %v", *prompts)
	}
}

func TestCommentaryErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{"not json", "plain text", func(err error) bool { return strings.Contains(err.Error(), "parse LLM response") }},
		{"empty commentary", `{"commentary": "   "}`, func(err error) bool { return errors.Is(err, ErrEmptyCommentary) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeServer(t, tt.content)
			c, _ := New(srv.URL+"/v1", "key", "test-model")
			test, results := testResults()

			_, err := c.Commentary(context.Background(), test, results, "en")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClientImplementsCommentator(t *testing.T) {
	var _ Commentator = (*Client)(nil)
}
