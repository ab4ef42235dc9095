package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLink: ein Link wurde mit Knoten der falschen Art gebaut.
	ErrInvalidLink = errors.New("invalid link participants")
	// ErrMalformedRecord: einem Datensatz fehlt ein Pflichtfeld oder er hat ein unbekanntes Feld.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidDocument: ein gespeichertes Graph-Dokument ist inkonsistent.
	ErrInvalidDocument = errors.New("invalid graph document")
)

// LinkTypeError beschreibt, welcher Knoten eines Links die falsche Art hatte.
type LinkTypeError struct {
	Link     LinkKind
	Position string
	Got      NodeKind
	Want     []NodeKind
}

func (e *LinkTypeError) Error() string {
	return fmt.Sprintf("%s link: %s must be one of %v, got %s", e.Link, e.Position, e.Want, e.Got)
}

func (e *LinkTypeError) Unwrap() error {
	return ErrInvalidLink
}

func malformed(kind NodeKind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedRecord, kind, fmt.Sprintf(format, args...))
}
