package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
	"google.golang.org/api/option"
)

// Config for the Gemini provider.
type Config struct {
	APIKey      string
	Model       string // default gemini-1.5-flash
	Temperature float32
}

// Client is a provider for Google Gemini
type Client struct {
	cfg Config
	log *slog.Logger
}

var _ llm.Provider = (*Client)(nil)

// New returns a new Gemini provider
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, log: logger}
}

// Classify implements llm.SignatureClassifier.
func (g *Client) Classify(ctx context.Context, img llm.ImageInput) (entity.ClassificationVerdict, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	format := img.Format
	if format == "" {
		_, format = llm.DetectImage(img.Data)
	}

	g.log.Info("llm.classify.start", "req_id", rid, "provider", "gemini", "model", g.cfg.Model, "image_index", img.Index, "format", format)

	content, err := g.generate(ctx, 1000, llm.ClassificationSystemPrompt,
		genai.ImageData(format, img.Data),
		genai.Text(llm.ClassificationUserPrompt),
	)
	if err != nil {
		g.log.Error("llm.classify.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.ClassificationVerdict{}, nil, llm.ClassifyError(ctx, err)
	}

	verdict, raw, err := llm.DecodeVerdict(content, g.log)
	if err != nil {
		g.log.Error("llm.classify.schema_validation_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.ClassificationVerdict{}, raw, err
	}
	g.log.Info("llm.classify.ok", "req_id", rid, "is_signature", verdict.IsSignature, "confidence", verdict.Confidence, "elapsed_ms", time.Since(start).Milliseconds())
	return verdict, raw, nil
}

// ExtractEntities implements llm.EntityExtractor.
func (g *Client) ExtractEntities(ctx context.Context, text string) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	g.log.Info("llm.entities.start", "req_id", rid, "provider", "gemini", "text_len", len(text))

	content, err := g.generate(ctx, 3000, llm.EntitySystemPrompt, genai.Text(llm.BuildEntityUserPrompt(text)))
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}
	raw, err := llm.CheckEntities(content, g.log)
	if err != nil {
		return raw, err
	}
	g.log.Info("llm.entities.ok", "req_id", rid, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return raw, nil
}

func (g *Client) generate(ctx context.Context, maxTokens int32, system string, parts ...genai.Part) (string, error) {
	if g.cfg.APIKey == "" {
		return "", errors.New("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.APIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.Model)
	model.SetTemperature(g.cfg.Temperature)
	model.SetMaxOutputTokens(maxTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from Gemini", llm.ErrMalformedResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content returned from Gemini", llm.ErrMalformedResponse)
	}

	var b strings.Builder
	for _, p := range candidate.Content.Parts {
		if txt, ok := p.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: unexpected response format from Gemini", llm.ErrMalformedResponse)
	}
	return strings.TrimSpace(b.String()), nil
}
