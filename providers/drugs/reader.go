package drugs

import (
	"context"

	"pharma-graph/providers"

	"go.uber.org/zap"
)

// Columns sind die Pflichtspalten des Wirkstoff-Registers.
var Columns = []string{"atccode", "drug"}

// Reader liest das Wirkstoff-Register (CSV).
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
	return "drugs"
}

func (r *Reader) Read(ctx context.Context, path string) ([]providers.Row, error) {
	log := r.Logger.With(zap.String("file", path))
	log.Info("Reading drug file")
	rows, err := providers.ReadCSV(ctx, path, Columns...)
	if err != nil {
		log.Error("Failed to read drug file", zap.Error(err))
		return nil, err
	}
	return rows, nil
}
