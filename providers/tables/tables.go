// Package tables liest die normalisierten JSON-Tabellen, die der Ingest-Schritt schreibt.
package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pharma-graph/graph"
	"pharma-graph/providers"
)

// Dateinamen der normalisierten Tabellen.
const (
	DrugsFile          = "drugs.json"
	JournalsFile       = "journals.json"
	PublicationsFile   = "pubmeds.json"
	ClinicalTrialsFile = "clinical_trials.json"
)

// File ist eine Tabelle als JSON-Array von Objekten.
type File struct {
	Path string
}

func (f File) Name() string { return filepath.Base(f.Path) }

// Load dekodiert die Tabelle. Zahlen bleiben als json.Number erhalten.
func (f File) Load(ctx context.Context) ([]graph.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer data.Close()

	dec := json.NewDecoder(data)
	dec.UseNumber()
	var records []graph.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return records, nil
}

// FromDir liefert die vier Tabellen eines Ingest-Verzeichnisses.
func FromDir(dir string) providers.Tables {
	return providers.Tables{
		Drugs:          File{Path: filepath.Join(dir, DrugsFile)},
		Journals:       File{Path: filepath.Join(dir, JournalsFile)},
		Publications:   File{Path: filepath.Join(dir, PublicationsFile)},
		ClinicalTrials: File{Path: filepath.Join(dir, ClinicalTrialsFile)},
	}
}
