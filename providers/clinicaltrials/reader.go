package clinicaltrials

import (
	"context"

	"pharma-graph/providers"

	"go.uber.org/zap"
)

// Columns sind die Pflichtspalten des Clinical-Trials-Exports.
var Columns = []string{"id", "scientific_title", "date", "journal"}

// Reader liest den CSV-Export der Clinical Trials.
type Reader struct {
	Logger *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{Logger: logger}
}

func (r *Reader) Name() string {
	return "clinical_trials"
}

func (r *Reader) Read(ctx context.Context, path string) ([]providers.Row, error) {
	log := r.Logger.With(zap.String("file", path))
	log.Info("Reading clinical trials file")
	rows, err := providers.ReadCSV(ctx, path, Columns...)
	if err != nil {
		log.Error("Failed to read clinical trials file", zap.Error(err))
		return nil, err
	}
	return rows, nil
}
