package tables

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pharma-graph/graph"
)

func TestFromDirFeedsBuilder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		DrugsFile:          `[{"atccode":"A04AD","name":"diphenhydramine"}]`,
		JournalsFile:       `[{"name":"journal of emergency nursing"}]`,
		PublicationsFile:   `[{"base_id":"1","title":"diphenhydramine for sleep","date":"2019-01-01T00:00:00.000Z","journal":"journal of emergency nursing"}]`,
		ClinicalTrialsFile: `[{"base_id":"NCT01967433","title":"use of diphenhydramine","date":null,"journal":null}]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	tbl := FromDir(dir)
	if tbl.Publications.Name() != PublicationsFile {
		t.Fatalf("unexpected source name %q", tbl.Publications.Name())
	}

	g, err := graph.NewBuilder(nil).Build(context.Background(), tbl.Drugs, tbl.Journals, tbl.Publications, tbl.ClinicalTrials)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.NodeCount())
	}
	// 1 published, 2 direct mentions, 1 journal mention
	if g.LinkCount() != 4 {
		t.Fatalf("expected 4 links, got %d", g.LinkCount())
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := File{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
