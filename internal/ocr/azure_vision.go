package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// VisionOCR recognizes printed text with Azure Computer Vision.
type VisionOCR struct {
	client computervision.BaseClient
	logger *slog.Logger
}

var _ ImageOCR = (*VisionOCR)(nil)

func NewVisionOCR(endpoint, apiKey string, logger *slog.Logger) *VisionOCR {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &VisionOCR{client: client, logger: logger}
}

// RecognizeImage returns the recognized lines joined with newlines.
func (v *VisionOCR) RecognizeImage(ctx context.Context, img []byte) (string, error) {
	result, err := v.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(img)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", fmt.Errorf("recognize printed text: %w", err)
	}
	lines := ocrLines(result)
	v.logger.Debug("ocr.vision.ok", "lines", len(lines), "bytes", len(img))
	return strings.Join(lines, "\n"), nil
}

// ocrLines flattens regions and lines, joining words with spaces.
func ocrLines(result computervision.OcrResult) []string {
	if result.Regions == nil {
		return nil
	}
	var out []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				out = append(out, strings.Join(words, " "))
			}
		}
	}
	return out
}
