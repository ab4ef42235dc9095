package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"pharma-graph/config"
)

func TestCommandPipeline(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	files := map[string]string{
		"drugs.csv":           "atccode,drug\nA04AD,DIPHENHYDRAMINE\nS03AA,TETRACYCLINE\n",
		"pubmed.csv":          "id,title,date,journal\n1,Diphenhydramine for sleep,01/01/2019,Journal of emergency nursing\n",
		"pubmed.json":         `[{"id": 2, "title": "Tetracycline resistance", "date": "2020-01-01", "journal": "Psychopharmacology",},]`,
		"clinical_trials.csv": "id,scientific_title,date,journal\nNCT1,Use of Diphenhydramine,25/05/2020,Journal of emergency nursing\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	out := filepath.Join(t.TempDir(), "tables")
	graphFile := filepath.Join(t.TempDir(), "graph.json")
	cfg := &config.Config{DataDir: out, GraphFile: graphFile}
	ctx := context.Background()
	logging := zap.NewNop()

	err := run(ctx, "ingest", []string{
		"--pubmed-files", filepath.Join(in, "pubmed.csv") + "," + filepath.Join(in, "pubmed.json"),
		"--clinical-trials-file", filepath.Join(in, "clinical_trials.csv"),
		"--drug-file", filepath.Join(in, "drugs.csv"),
		"-o", out,
	}, cfg, logging, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if err := run(ctx, "build-graph", []string{"-i", out, "-g", graphFile}, cfg, logging, &bytes.Buffer{}); err != nil {
		t.Fatalf("build-graph failed: %v", err)
	}

	var mentions bytes.Buffer
	if err := run(ctx, "mentions", []string{"-g", graphFile, "-d", "diphenhydramine", "-d", "TETRACYCLINE"}, cfg, logging, &mentions); err != nil {
		t.Fatalf("mentions failed: %v", err)
	}
	var res map[string][]map[string]any
	if err := json.Unmarshal(mentions.Bytes(), &res); err != nil {
		t.Fatalf("decode mentions: %v", err)
	}
	// publication, trial, journal
	if len(res["diphenhydramine"]) != 3 {
		t.Fatalf("expected 3 diphenhydramine mentions, got %v", res["diphenhydramine"])
	}
	if len(res["tetracycline"]) != 2 {
		t.Fatalf("expected 2 tetracycline mentions, got %v", res["tetracycline"])
	}

	var stats bytes.Buffer
	if err := run(ctx, "journal-stats", []string{"-g", graphFile}, cfg, logging, &stats); err != nil {
		t.Fatalf("journal-stats failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stats.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 journals, got %q", stats.String())
	}
	if !strings.HasPrefix(lines[1], "journal of emergency nursing") {
		t.Fatalf("unexpected first journal line %q", lines[1])
	}
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{GraphFile: filepath.Join(t.TempDir(), "missing.json")}
	ctx := context.Background()
	logging := zap.NewNop()

	if err := run(ctx, "unknown", nil, cfg, logging, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if err := run(ctx, "mentions", nil, cfg, logging, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without -d")
	}
	if err := run(ctx, "journal-stats", nil, cfg, logging, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing graph file")
	}
	if err := run(ctx, "ingest", []string{"-o", t.TempDir()}, cfg, logging, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without input files")
	}
}
