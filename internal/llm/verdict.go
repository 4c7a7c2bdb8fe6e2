package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

const (
	verdictSchemaName  = "verdict.json"
	entitiesSchemaName = "entities.json"
)

// ErrMalformedResponse marks a provider envelope that could not be read.
var ErrMalformedResponse = errors.New("malformed model response")

// DecodeVerdict runs a model answer through the lenient pass, the closed verdict schema and
// finally into the typed verdict. It returns the normalized JSON it decoded.
func DecodeVerdict(content string, logger *slog.Logger) (entity.ClassificationVerdict, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := []byte(StripCodeFence(content))

	normalized, changed, err := NormalizeVerdict(raw)
	if err != nil {
		return entity.ClassificationVerdict{}, raw, common.NewClassifierError("decode", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.classify.lenient_normalize_applied", "changed", changed)
	}

	if err := ValidateJSONAgainstSchema(verdictSchemaName, BuildVerdictJSONSchema(), normalized); err != nil {
		return entity.ClassificationVerdict{}, normalized, common.NewClassifierError("schema", err)
	}

	var out entity.ClassificationVerdict
	if err := json.Unmarshal(normalized, &out); err != nil {
		return entity.ClassificationVerdict{}, normalized, common.NewClassifierError("decode", err)
	}
	return out, normalized, nil
}

// CheckEntities validates an entities answer. Schema mismatches are logged and tolerated;
// only a non-object answer is an error.
func CheckEntities(content string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := []byte(StripCodeFence(content))

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw, &common.StructuralInputError{Reason: "entities answer is not valid JSON", Cause: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return raw, &common.StructuralInputError{Reason: "entities answer is not a JSON object"}
	}
	if err := ValidateJSONAgainstSchema(entitiesSchemaName, BuildEntitiesJSONSchema(), raw); err != nil {
		logger.Warn("llm.entities.schema_mismatch", "error", err)
	}
	return raw, nil
}

// ClassifyError maps a transport failure onto the classifier error stages.
func ClassifyError(ctx context.Context, err error) error {
	var ce *common.ClassifierError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, ErrMalformedResponse) {
		return common.NewClassifierError("decode", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return common.NewClassifierError("timeout", err)
	}
	return common.NewClassifierError("http", err)
}
