package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pharma-graph/providers"
)

// ExportDateLayout ist das ISO-8601-Format der exportierten Datumswerte.
const ExportDateLayout = "2006-01-02T15:04:05.000Z"

// Literale Escape-Reste wie "\xc3\x28" aus fehlerhaft exportierten Dateien
var escapeRE = regexp.MustCompile(`\\x\w{2}`)

// ColumnNormalizer bereinigt Textspalten der Rohdaten.
type ColumnNormalizer struct {
	logger   *zap.Logger
	replacer *strings.Replacer
}

func NewColumnNormalizer(logger *zap.Logger) *ColumnNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ColumnNormalizer{
		logger: logger,
		replacer: strings.NewReplacer(
			"ﬁ", "fi",
			"ﬂ", "fl",
			"ﬀ", "ff",
			"ﬃ", "ffi",
			"ﬄ", "ffl",
			"ﬆ", "st",
		),
	}
}

// Clean normalisiert einen Wert: NFC, Kleinschreibung, Trim, Entfernen von \xNN-Resten.
// ok ist false, wenn danach nur Leerraum übrig bleibt.
func (cn *ColumnNormalizer) Clean(value string) (string, bool) {
	s := cn.normalizeUnicode(value)
	s = strings.TrimSpace(strings.ToLower(s))
	s = escapeRE.ReplaceAllString(s, "")
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// CleanRow liefert eine Kopie von row, in der die Spalten cols bereinigt sind. Leere
// Spalten fehlen in der Kopie.
func (cn *ColumnNormalizer) CleanRow(row providers.Row, cols ...string) providers.Row {
	out := make(providers.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, col := range cols {
		v, ok := out[col]
		if !ok {
			continue
		}
		if cleaned, ok := cn.Clean(v); ok {
			out[col] = cleaned
		} else {
			delete(out, col)
		}
	}
	return out
}

// normalizeUnicode führt NFC-Normalisierung durch und ersetzt gängige Ligaturen
func (cn *ColumnNormalizer) normalizeUnicode(s string) string {
	s = cn.replacer.Replace(s)
	t := transform.Chain(norm.NFC)
	normalized, _, err := transform.String(t, s)
	if err != nil {
		cn.logger.Debug("Unicode normalization failed", zap.String("value", s), zap.Error(err))
		return s
	}
	return normalized
}

// ParseRawDate liest die Datumsformate der Rohdaten ("1 January 2020", "2020-01-01",
// "01/25/2020", ...). Nicht eindeutige Werte werden als Monat/Tag gelesen, ungültige
// Monate fallen auf Tag/Monat/Jahr zurück ("25/05/2020"). Ergebnis in UTC.
func ParseRawDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := dateparse.ParseIn(value, time.UTC)
	if err == nil {
		return t.UTC(), nil
	}
	if t, derr := time.Parse("02/01/2006", value); derr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q: %w", value, err)
}

// FormatExportDate formatiert t für den JSON-Export.
func FormatExportDate(t time.Time) string {
	return t.UTC().Format(ExportDateLayout)
}
