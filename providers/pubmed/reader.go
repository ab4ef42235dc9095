package pubmed

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pharma-graph/providers"

	"go.uber.org/zap"
)

// Columns sind die Pflichtspalten einer PubMed-Rohdatei.
var Columns = []string{"id", "title", "date", "journal"}

// Reader liest PubMed-Exporte im CSV- oder JSON-Format.
type Reader struct {
	Logger *zap.Logger
}

// NewReader erstellt eine neue Instanz des PubMed-Readers.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (r *Reader) Name() string {
	return "pubmed"
}

// Read wählt das Format anhand der Dateiendung.
func (r *Reader) Read(ctx context.Context, path string) ([]providers.Row, error) {
	log := r.Logger.With(zap.String("file", path))
	log.Info("Reading pubmed file")

	var (
		rows []providers.Row
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = providers.ReadCSV(ctx, path, Columns...)
	case ".json":
		rows, err = providers.ReadJSON(ctx, path, Columns...)
	default:
		return nil, fmt.Errorf("pubmed %s: %w", path, providers.ErrUnknownExtension)
	}
	if err != nil {
		log.Error("Failed to read pubmed file", zap.Error(err))
		return nil, err
	}
	log.Debug("Pubmed file read", zap.Int("rows", len(rows)))
	return rows, nil
}
