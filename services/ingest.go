package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pharma-graph/providers"
	"pharma-graph/providers/clinicaltrials"
	"pharma-graph/providers/drugs"
	"pharma-graph/providers/pubmed"
	"pharma-graph/providers/tables"
)

// ErrInvalidRequest wird geliefert, wenn Eingabedateien oder Ausgabeverzeichnis fehlen.
var ErrInvalidRequest = errors.New("invalid ingest request")

// IngestRequest beschreibt einen Ingest-Lauf.
type IngestRequest struct {
	PubmedFiles        []string
	ClinicalTrialsFile string
	DrugFile           string
	OutputDir          string
}

// IngestResult zählt die exportierten Datensätze pro Tabelle.
type IngestResult struct {
	Drugs          int      `json:"drugs"`
	Journals       int      `json:"journals"`
	Publications   int      `json:"publications"`
	ClinicalTrials int      `json:"clinical_trials"`
	Files          []string `json:"files"`
}

// IngestService liest die Rohdateien, bereinigt sie und schreibt die normalisierten
// Tabellen, aus denen der Graph gebaut wird.
type IngestService struct {
	Logger     *zap.Logger
	Normalizer *ColumnNormalizer
	Pubmed     providers.Provider
	Trials     providers.Provider
	Drugs      providers.Provider
}

// NewIngestService erstellt einen IngestService mit den Standard-Readern.
func NewIngestService(logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		Logger:     logger,
		Normalizer: NewColumnNormalizer(logger),
		Pubmed:     pubmed.NewReader(logger),
		Trials:     clinicaltrials.NewReader(logger),
		Drugs:      drugs.NewReader(logger),
	}
}

// Run liest alle Dateien parallel und exportiert erst, wenn alle gelesen und formatiert
// wurden. Bei einem Fehler bleibt das Ausgabeverzeichnis unverändert.
func (s *IngestService) Run(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	log := s.Logger.With(zap.String("output_dir", req.OutputDir))
	log.Info("Starting ingest", zap.Strings("pubmed_files", req.PubmedFiles))

	pubmedRows := make([][]providers.Row, len(req.PubmedFiles))
	var trialRows, drugRows []providers.Row

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range req.PubmedFiles {
		i, path := i, path
		g.Go(func() error {
			rows, err := s.Pubmed.Read(gctx, path)
			pubmedRows[i] = rows
			return err
		})
	}
	g.Go(func() error {
		rows, err := s.Trials.Read(gctx, req.ClinicalTrialsFile)
		trialRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.Drugs.Read(gctx, req.DrugFile)
		drugRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("Failed to read input files", zap.Error(err))
		return nil, err
	}

	publications := s.formatPublications(pubmedRows)
	trials := s.formatClinicalTrials(trialRows)
	journals := journalTable(trials, publications)
	drugTable := s.formatDrugs(drugRows)

	outputs := []struct {
		name    string
		records []map[string]any
	}{
		{tables.PublicationsFile, publications},
		{tables.ClinicalTrialsFile, trials},
		{tables.JournalsFile, journals},
		{tables.DrugsFile, drugTable},
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// zuerst alle Temp-Dateien schreiben, dann umbenennen
	var temps []string
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}
	for _, out := range outputs {
		tmp, err := writeTempJSON(req.OutputDir, out.name, out.records)
		if err != nil {
			cleanup()
			log.Error("Failed to export table", zap.String("table", out.name), zap.Error(err))
			return nil, err
		}
		temps = append(temps, tmp)
	}

	result := &IngestResult{
		Drugs:          len(drugTable),
		Journals:       len(journals),
		Publications:   len(publications),
		ClinicalTrials: len(trials),
	}
	for i, out := range outputs {
		target := filepath.Join(req.OutputDir, out.name)
		if err := os.Rename(temps[i], target); err != nil {
			cleanup()
			return nil, fmt.Errorf("export %s: %w", out.name, err)
		}
		result.Files = append(result.Files, target)
	}

	log.Info("Ingest finished",
		zap.Int("drugs", result.Drugs),
		zap.Int("journals", result.Journals),
		zap.Int("publications", result.Publications),
		zap.Int("clinical_trials", result.ClinicalTrials))
	return result, nil
}

func (r IngestRequest) validate() error {
	if len(r.PubmedFiles) == 0 {
		return fmt.Errorf("%w: no pubmed file", ErrInvalidRequest)
	}
	if r.ClinicalTrialsFile == "" || r.DrugFile == "" {
		return fmt.Errorf("%w: clinical trials and drug file are required", ErrInvalidRequest)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: no output directory", ErrInvalidRequest)
	}
	return nil
}

// formatDrugs: drug bereinigen, in name umbenennen, Dubletten nach name entfernen.
// Zeilen ohne Namen oder ATC-Code entfallen, aus ihnen lässt sich kein Drug bauen.
func (s *IngestService) formatDrugs(rows []providers.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	seen := map[string]struct{}{}
	for _, row := range rows {
		row = s.Normalizer.CleanRow(row, "drug")
		name, ok := row["drug"]
		if !ok {
			s.Logger.Warn("Drug without name dropped", zap.String("atccode", row["atccode"]))
			continue
		}
		if strings.TrimSpace(row["atccode"]) == "" {
			s.Logger.Warn("Drug without atccode dropped", zap.String("name", name))
			continue
		}
		if _, dup := seen[name]; dup {
			s.Logger.Info("Duplicate drug dropped", zap.String("name", name))
			continue
		}
		seen[name] = struct{}{}
		out = append(out, map[string]any{
			"atccode": optional(row, "atccode"),
			"name":    name,
		})
	}
	return out
}

// formatPublications führt alle PubMed-Dateien zusammen. Dubletten nach Titel werden
// entfernt, id wird zu base_id.
func (s *IngestService) formatPublications(files [][]providers.Row) []map[string]any {
	var out []map[string]any
	seen := map[string]struct{}{}
	for _, rows := range files {
		for _, row := range rows {
			row = s.Normalizer.CleanRow(row, "id", "title", "journal")
			rec := s.titledRecord(row, "title")
			if rec == nil {
				s.Logger.Warn("Publication without title dropped", zap.String("id", row["id"]))
				continue
			}
			title := rec["title"].(string)
			if _, dup := seen[title]; dup {
				s.Logger.Info("Duplicate publication dropped", zap.String("title", title))
				continue
			}
			seen[title] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

// formatClinicalTrials: scientific_title wird zu title, Zeilen ohne Titel entfallen.
func (s *IngestService) formatClinicalTrials(rows []providers.Row) []map[string]any {
	var out []map[string]any
	seen := map[string]struct{}{}
	for _, row := range rows {
		row = s.Normalizer.CleanRow(row, "scientific_title", "journal")
		rec := s.titledRecord(row, "scientific_title")
		if rec == nil {
			s.Logger.Debug("Clinical trial without title dropped", zap.String("id", row["id"]))
			continue
		}
		title := rec["title"].(string)
		if _, dup := seen[title]; dup {
			s.Logger.Info("Duplicate clinical trial dropped", zap.String("title", title))
			continue
		}
		seen[title] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// titledRecord baut den Export-Datensatz einer Publikation oder Studie. Ohne Titel ist
// das Ergebnis nil. Ein nicht lesbares Datum wird mit Warnung verworfen.
func (s *IngestService) titledRecord(row providers.Row, titleCol string) map[string]any {
	title, ok := row[titleCol]
	if !ok {
		return nil
	}
	rec := map[string]any{
		"base_id": optional(row, "id"),
		"title":   title,
		"date":    nil,
		"journal": optional(row, "journal"),
	}
	if raw := row["date"]; raw != "" {
		t, err := ParseRawDate(raw)
		if err != nil {
			s.Logger.Warn("Date dropped", zap.String("id", row["id"]), zap.String("title", title), zap.Error(err))
			return rec
		}
		rec["date"] = FormatExportDate(t)
	}
	return rec
}

// journalTable: Vereinigung der Journal-Namen beider Quellen, sortiert und ohne Leerwerte.
func journalTable(sources ...[]map[string]any) []map[string]any {
	names := map[string]struct{}{}
	for _, records := range sources {
		for _, rec := range records {
			if name, ok := rec["journal"].(string); ok && name != "" {
				names[name] = struct{}{}
			}
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	out := make([]map[string]any, 0, len(sorted))
	for _, name := range sorted {
		out = append(out, map[string]any{"name": name})
	}
	return out
}

func optional(row providers.Row, col string) any {
	if v, ok := row[col]; ok && v != "" {
		return v
	}
	return nil
}

func writeTempJSON(dir, name string, records []map[string]any) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if records == nil {
		records = []map[string]any{}
	}
	if err := json.NewEncoder(f).Encode(records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
