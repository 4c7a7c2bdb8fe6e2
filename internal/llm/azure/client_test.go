package azure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func TestClassify(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = io.WriteString(w, chatResponse(`{"is_signature":true,"confidence":0.92,"total_mark_count":1,"marks":[{"kind":"full_signature","position_description":"bottom"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL + "/", APIKey: "k", Deployment: "gpt-4o"}, nil)
	v, raw, err := c.Classify(context.Background(), llm.ImageInput{Data: []byte("\x89PNG\r\n\x1a\n"), Index: 1})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !v.IsSignature || v.Confidence != 0.92 || len(v.Marks) != 1 {
		t.Errorf("verdict = %+v", v)
	}
	if len(raw) == 0 {
		t.Error("expected raw json")
	}
	if gotPath != "/openai/deployments/gpt-4o/chat/completions?api-version=2023-12-01-preview" {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "k" {
		t.Errorf("api-key = %q", gotKey)
	}
	if rf, _ := gotBody["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
	if gotBody["max_tokens"] != float64(1000) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
	msgs, _ := gotBody["messages"].([]any)
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	img, _ := parts[1].(map[string]any)["image_url"].(map[string]any)
	if url, _ := img["url"].(string); !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("image url = %.40s", url)
	}
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		timeout   time.Duration
		wantStage string
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantStage: "http",
		},
		{
			name: "envelope not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>")
			},
			wantStage: "decode",
		},
		{
			name: "content fails schema",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, chatResponse(`{"is_signature":"maybe","confidence":0.9}`))
			},
			wantStage: "schema",
		},
		{
			name: "deadline",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout:   50 * time.Millisecond,
			wantStage: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}

			c := NewClient(Config{Endpoint: srv.URL, APIKey: "k", Deployment: "d"}, nil)
			_, _, err := c.Classify(ctx, llm.ImageInput{Data: []byte{0xff, 0xd8, 0xff}})
			if !errors.Is(err, common.ErrClassifier) {
				t.Fatalf("err = %v, want ErrClassifier", err)
			}
			var ce *common.ClassifierError
			if !errors.As(err, &ce) || ce.Stage != tt.wantStage {
				t.Errorf("stage = %v, want %s", err, tt.wantStage)
			}
		})
	}
}

func TestExtractEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse(`{"our_ref":"R-7","company_name":"Acme Labs"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "k", Deployment: "d"}, nil)
	raw, err := c.ExtractEntities(context.Background(), "Our Ref: R-7")
	if err != nil {
		t.Fatalf("ExtractEntities: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || m["our_ref"] != "R-7" {
		t.Errorf("raw = %s (%v)", raw, err)
	}
}
