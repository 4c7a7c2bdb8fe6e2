package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
			}}},
			want: `{"a":1}`,
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
			}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, llm.ErrMalformedResponse) {
					t.Errorf("err = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("responseText = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestClassifyWithoutKey(t *testing.T) {
	c := New(Config{}, nil)
	_, _, err := c.Classify(context.Background(), llm.ImageInput{Data: []byte{0xff, 0xd8, 0xff}})
	if !errors.Is(err, common.ErrClassifier) {
		t.Errorf("err = %v, want ErrClassifier", err)
	}
}
