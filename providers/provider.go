package providers

import (
	"context"
	"errors"

	"pharma-graph/graph"
)

// ErrUnknownExtension wird geliefert, wenn eine Rohdatei weder .csv noch .json ist.
var ErrUnknownExtension = errors.New("unknown file extension")

// ErrMissingColumn wird geliefert, wenn einer Rohdatei eine Pflichtspalte fehlt.
var ErrMissingColumn = errors.New("missing column")

// Row ist eine Zeile einer Rohdatei: Spaltenname -> Rohwert.
type Row map[string]string

// Provider ist das Interface, das jede Rohdaten-Quelle (z.B. PubMed, Clinical Trials) implementieren muss.
type Provider interface {
	// Read liest eine Rohdatei der Quelle vollständig ein.
	Read(ctx context.Context, path string) ([]Row, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "pubmed").
	Name() string
}

// RecordSource liefert die normalisierten Datensätze einer Tabelle an den Graph-Builder.
type RecordSource = graph.Source

// Tables bündelt die vier normalisierten Tabellen eines Builds.
type Tables struct {
	Drugs          RecordSource
	Journals       RecordSource
	Publications   RecordSource
	ClinicalTrials RecordSource
}
