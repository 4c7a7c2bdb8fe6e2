package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

func setupTestStore(t *testing.T) ResultRepository {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "results.db")
	db, err := Open(context.Background(), Config{DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewResultRepository(db, nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestResultRepository_SaveAndLatest(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	older := DocumentResult{
		DocumentPath: "/in/a.pdf",
		ProcessedAt:  base,
		Entities:     entity.ReconciledEntities{OurRef: "old", ActualSignatures: 1, ResultsComply: constants.Yes},
	}
	report := entity.NewSignatureReport("/in/a.pdf", "test")
	newer := DocumentResult{
		DocumentPath: "/in/a.pdf",
		ProcessedAt:  base.Add(90 * time.Second),
		Entities: entity.ReconciledEntities{
			OurRef:             "new",
			ActualSignatures:   2,
			ExpectedSignatures: 2,
			ResultsComply:      constants.No,
			SignatureDetection: &report,
		},
	}
	if _, err := repo.Save(ctx, older); err != nil {
		t.Fatalf("Save older: %v", err)
	}
	id, err := repo.Save(ctx, newer)
	if err != nil {
		t.Fatalf("Save newer: %v", err)
	}

	got, err := repo.Latest(ctx, "/in/a.pdf")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != id {
		t.Errorf("Expected id %s, got %s", id, got.ID)
	}
	if got.Entities.OurRef != "new" || got.Entities.ResultsComply != constants.No {
		t.Errorf("Expected newest entities, got %+v", got.Entities)
	}
	if !got.ProcessedAt.Equal(newer.ProcessedAt) {
		t.Errorf("Expected processed_at %v, got %v", newer.ProcessedAt, got.ProcessedAt)
	}
	if got.Entities.SignatureDetection == nil || got.Entities.SignatureDetection.DetectionMethod != "test" {
		t.Errorf("signature_detection not round-tripped: %+v", got.Entities.SignatureDetection)
	}
}

func TestResultRepository_LatestNotFound(t *testing.T) {
	repo := setupTestStore(t)
	_, err := repo.Latest(context.Background(), "/missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResultRepository_List(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, p := range []string{"/in/a.pdf", "/in/b.pdf", "/in/c.pdf"} {
		_, err := repo.Save(ctx, DocumentResult{
			DocumentPath: p,
			ProcessedAt:  base.Add(time.Duration(i) * time.Minute),
			Entities:     entity.ReconciledEntities{ActualSignatures: i, ResultsComply: constants.Yes},
		})
		if err != nil {
			t.Fatalf("Save %s: %v", p, err)
		}
	}

	list, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(list))
	}
	if list[0].DocumentPath != "/in/c.pdf" || list[1].DocumentPath != "/in/b.pdf" {
		t.Errorf("Expected newest first, got %s, %s", list[0].DocumentPath, list[1].DocumentPath)
	}
	if list[0].ActualSignatures != 2 || list[0].ResultsComply != "Yes" {
		t.Errorf("Unexpected summary %+v", list[0])
	}
}

func TestResultRepository_Ping(t *testing.T) {
	if err := setupTestStore(t).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn     string
		dialect string
		target  string
	}{
		{"postgres://u:p@localhost/db", DialectPostgres, "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", DialectPostgres, "postgresql://localhost/db"},
		{"sqlite:///tmp/x.db", DialectSQLite, "/tmp/x.db"},
		{"sqlite:results.db", DialectSQLite, "results.db"},
		{"file:results.db?cache=shared", DialectSQLite, "file:results.db?cache=shared"},
		{"out/results.db", DialectSQLite, "out/results.db"},
	}
	for _, tc := range cases {
		t.Run(tc.dsn, func(t *testing.T) {
			d, target, err := parseDSN(tc.dsn)
			if err != nil {
				t.Fatalf("parseDSN: %v", err)
			}
			if d != tc.dialect || target != tc.target {
				t.Errorf("got (%s, %s), want (%s, %s)", d, target, tc.dialect, tc.target)
			}
		})
	}

	for _, bad := range []string{"", "mysql://localhost/db"} {
		if _, _, err := parseDSN(bad); !errors.Is(err, common.ErrConfiguration) {
			t.Errorf("parseDSN(%q) = %v, want configuration error", bad, err)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	lite := &DB{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("rebind = %q", got)
	}
}
