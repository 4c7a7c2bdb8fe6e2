package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

func writeEntities(t *testing.T) string {
	t.Helper()
	e := entity.ReconciledEntities{
		OurRef:               "R-1",
		CompanyName:          "Acme Labs",
		Subject:              "Water",
		NamesAndDesignations: []entity.NamedSignatory{{Name: "A. Tan", Designation: constants.DesignationQAApproved}},
		ExpectedSignatures:   1,
		ActualSignatures:     1,
		IsThereSignature:     constants.Yes,
		ResultsComply:        constants.No,
		TestResults: []entity.TestResultRecord{
			{Parameter: "pH", Result: "7.0", PassFail: "Pass"},
			{Parameter: "Lead", Result: "0.3", PassFail: "Fail"},
		},
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "Sample1_entities.json")
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSummaryText(t *testing.T) {
	out, err := run(t, "summary", writeEntities(t))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{
		"LABORATORY TEST REPORT SUMMARY - Sample1_entities",
		"Company Name: Acme Labs",
		"1. A. Tan - QA APPROVED",
		"Total Tests: 2  Passed: 1  Failed: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryYAML(t *testing.T) {
	out, err := run(t, "summary", "--format", "yaml", writeEntities(t))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"our_ref: R-1", "results_comply:", "failed: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml missing %q:\n%s", want, out)
		}
	}
}

func TestExcelCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "reports", "r.xlsx")
	out, err := run(t, "excel", writeEntities(t), dest)
	if err != nil {
		t.Fatalf("excel: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(out, "Tests Failed: 1") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestStoreRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DSN", "")
	if _, err := run(t, "store", "ping"); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestStoreListSQLite(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "r.db")
	out, err := run(t, "store", "list", "--store", dsn)
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	if !strings.Contains(out, "DOCUMENT") {
		t.Errorf("header missing:\n%s", out)
	}
}

func TestBatchEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "batch", dir)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "Found 0 report(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
