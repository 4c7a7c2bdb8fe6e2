package llm

import (
	"context"

	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// ImageInput is a single image handed to a vision model.
type ImageInput struct {
	Data       []byte
	Format     string // png | jpeg | ...; detected from Data when empty
	PageNumber int
	Index      int
}

// SignatureClassifier is the interface the detector depends on. Implementations return the
// validated verdict plus the raw model JSON; any failure is a *common.ClassifierError.
type SignatureClassifier interface {
	Classify(ctx context.Context, img ImageInput) (entity.ClassificationVerdict, []byte /*rawJSON*/, error)
}

// EntityExtractor turns report text into the raw entities JSON object.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]byte, error)
}

// Provider is what the CLI wires: one chat model serving both roles.
type Provider interface {
	SignatureClassifier
	EntityExtractor
}
