package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
)

var _ llm.Provider = (*Client)(nil)

// Classify implements llm.SignatureClassifier with a vision chat/completions call.
func (c *Client) Classify(ctx context.Context, img llm.ImageInput) (entity.ClassificationVerdict, []byte, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()

	c.log.Info("llm.classify.start",
		"req_id", rid,
		"deployment", c.cfg.Deployment,
		"image_index", img.Index,
		"page", img.PageNumber,
		"image_bytes", len(img.Data),
	)

	body := map[string]any{
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.ClassifyMaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.ClassificationSystemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": llm.ClassificationUserPrompt},
				{"type": "image_url", "image_url": map[string]any{"url": llm.DataURL(img.Data)}},
			}},
		},
	}

	content, err := c.chat(ctx, body)
	if err != nil {
		c.log.Error("llm.classify.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ClassificationVerdict{}, nil, llm.ClassifyError(ctx, err)
	}

	verdict, raw, err := llm.DecodeVerdict(content, c.log)
	if err != nil {
		c.log.Error("llm.classify.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ClassificationVerdict{}, raw, err
	}

	c.log.Info("llm.classify.ok",
		"req_id", rid,
		"is_signature", verdict.IsSignature,
		"confidence", verdict.Confidence,
		"marks", len(verdict.Marks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return verdict, raw, nil
}

// ExtractEntities implements llm.EntityExtractor with a text-only call.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]byte, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()

	c.log.Info("llm.entities.start", "req_id", rid, "deployment", c.cfg.Deployment, "text_len", len(text))

	body := map[string]any{
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.EntityMaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.EntitySystemPrompt},
			{"role": "user", "content": llm.BuildEntityUserPrompt(text)},
		},
	}

	content, err := c.chat(ctx, body)
	if err != nil {
		c.log.Error("llm.entities.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	raw, err := llm.CheckEntities(content, c.log)
	if err != nil {
		return raw, err
	}
	c.log.Info("llm.entities.ok", "req_id", rid, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return raw, nil
}

func (c *Client) chat(ctx context.Context, body map[string]any) (string, error) {
	raw, err := llm.SendJSON(ctx, c.http, c.completionsURL(), body, map[string]string{"api-key": c.cfg.APIKey}, c.log)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: decode azure response: %v", llm.ErrMalformedResponse, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in azure response", llm.ErrMalformedResponse)
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) completionsURL() string {
	return strings.TrimRight(c.cfg.Endpoint, "/") +
		"/openai/deployments/" + url.PathEscape(c.cfg.Deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(c.cfg.APIVersion)
}
