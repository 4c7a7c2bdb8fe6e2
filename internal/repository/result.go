package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// ErrNotFound is returned by Latest when a document has no stored result.
var ErrNotFound = errors.New("document result not found")

// sortable, fixed-width text timestamps for sqlite
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DocumentResult is one processed document.
type DocumentResult struct {
	ID           uuid.UUID
	DocumentPath string
	ProcessedAt  time.Time
	Entities     entity.ReconciledEntities
}

// DocumentSummary is a listing row without the entities payload.
type DocumentSummary struct {
	ID                 uuid.UUID `yaml:"id"`
	DocumentPath       string    `yaml:"document_path"`
	ProcessedAt        time.Time `yaml:"processed_at"`
	ActualSignatures   int       `yaml:"actual_signatures"`
	ExpectedSignatures int       `yaml:"expected_signatures"`
	ResultsComply      string    `yaml:"results_comply"`
}

type ResultRepository interface {
	Save(ctx context.Context, r DocumentResult) (uuid.UUID, error)
	Latest(ctx context.Context, documentPath string) (*DocumentResult, error)
	List(ctx context.Context, limit int) ([]DocumentSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

type resultRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewResultRepository(db *DB, logger *slog.Logger) ResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &resultRepository{db: db, logger: logger}
}

// Save inserts a result. A zero ID or ProcessedAt is filled in.
func (r *resultRepository) Save(ctx context.Context, res DocumentResult) (uuid.UUID, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.ProcessedAt.IsZero() {
		res.ProcessedAt = time.Now()
	}
	payload, err := json.Marshal(res.Entities)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: encode entities: %w", common.ErrStore, err)
	}

	q := r.db.rebind(`INSERT INTO document_result
		(id, document_path, processed_at, actual_signatures, expected_signatures, results_comply, entities_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.conn.ExecContext(ctx, q,
		res.ID.String(),
		res.DocumentPath,
		r.timeArg(res.ProcessedAt),
		res.Entities.ActualSignatures,
		res.Entities.ExpectedSignatures,
		string(res.Entities.ResultsComply),
		string(payload),
	)
	if err != nil {
		r.logger.Error("failed to save document result", "path", res.DocumentPath, "error", err)
		return uuid.Nil, fmt.Errorf("%w: insert: %w", common.ErrStore, err)
	}
	r.logger.Info("store.save.ok", "id", res.ID, "path", res.DocumentPath)
	return res.ID, nil
}

func (r *resultRepository) Latest(ctx context.Context, documentPath string) (*DocumentResult, error) {
	q := r.db.rebind(`SELECT id, document_path, processed_at, entities_json
		FROM document_result WHERE document_path = ?
		ORDER BY processed_at DESC LIMIT 1`)

	var (
		id, path, payload string
		at                timeValue
	)
	err := r.db.conn.QueryRowContext(ctx, q, documentPath).Scan(&id, &path, &at, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest: %w", common.ErrStore, err)
	}

	out := &DocumentResult{DocumentPath: path, ProcessedAt: at.Time}
	if out.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: bad id %q: %w", common.ErrStore, id, err)
	}
	if err := json.Unmarshal([]byte(payload), &out.Entities); err != nil {
		return nil, fmt.Errorf("%w: decode entities: %w", common.ErrStore, err)
	}
	return out, nil
}

// List returns the most recent results first. limit <= 0 means 50.
func (r *resultRepository) List(ctx context.Context, limit int) ([]DocumentSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.rebind(`SELECT id, document_path, processed_at, actual_signatures, expected_signatures, results_comply
		FROM document_result ORDER BY processed_at DESC LIMIT ?`)
	rows, err := r.db.conn.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", common.ErrStore, err)
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var (
			s  DocumentSummary
			id string
			at timeValue
		)
		if err := rows.Scan(&id, &s.DocumentPath, &at, &s.ActualSignatures, &s.ExpectedSignatures, &s.ResultsComply); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", common.ErrStore, err)
		}
		s.ID, _ = uuid.Parse(id)
		s.ProcessedAt = at.Time
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %w", common.ErrStore, err)
	}
	return out, nil
}

func (r *resultRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx, 2*time.Second)
}

func (r *resultRepository) Close() error {
	r.db.Close()
	return nil
}

func (r *resultRepository) timeArg(t time.Time) any {
	if r.db.dialect == DialectPostgres {
		return t.UTC()
	}
	return t.UTC().Format(timeLayout)
}

// timeValue scans both TIMESTAMPTZ and the sqlite text form.
type timeValue struct{ time.Time }

func (tv *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		tv.Time = v
		return nil
	case string:
		return tv.parse(v)
	case []byte:
		return tv.parse(string(v))
	case nil:
		tv.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (tv *timeValue) parse(s string) error {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	tv.Time = t
	return err
}
