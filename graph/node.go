package graph

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NodeKind unterscheidet die Knoten-Arten. Der Wert ist auch das Feld "type" im
// gespeicherten Dokument.
type NodeKind string

const (
	KindPublication   NodeKind = "publication"
	KindClinicalTrial NodeKind = "clinical_trial"
	KindJournal       NodeKind = "journal"
	KindDrug          NodeKind = "drug"
)

// Node ist *Drug, *Publication, *ClinicalTrial oder *Journal.
type Node interface {
	NodeID() int
	Kind() NodeKind
	node()
}

// titled: Knoten, deren Titel einen Drug erwähnen kann.
type titled interface {
	Node
	TitleText() string
	PublishedAt() *time.Time
}

// Record ist eine Zeile einer normalisierten Tabelle.
type Record map[string]any

// Drug ist ein Wirkstoff aus dem Wirkstoffverzeichnis.
type Drug struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	ATCCode string `json:"atccode"`
}

// Publication ist ein PubMed-Artikel.
type Publication struct {
	ID     int        `json:"id"`
	Title  string     `json:"title"`
	Date   *time.Time `json:"date"`
	BaseID *string    `json:"base_id"`
}

// ClinicalTrial ist eine registrierte klinische Studie.
type ClinicalTrial struct {
	ID     int        `json:"id"`
	Title  string     `json:"title"`
	Date   *time.Time `json:"date"`
	BaseID *string    `json:"base_id"`
}

// Journal, in dem eine Publikation oder Studie erschien.
type Journal struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (d *Drug) NodeID() int    { return d.ID }
func (d *Drug) Kind() NodeKind { return KindDrug }
func (*Drug) node()            {}

func (p *Publication) NodeID() int             { return p.ID }
func (p *Publication) Kind() NodeKind          { return KindPublication }
func (p *Publication) TitleText() string       { return p.Title }
func (p *Publication) PublishedAt() *time.Time { return p.Date }
func (*Publication) node()                     {}

func (c *ClinicalTrial) NodeID() int             { return c.ID }
func (c *ClinicalTrial) Kind() NodeKind          { return KindClinicalTrial }
func (c *ClinicalTrial) TitleText() string       { return c.Title }
func (c *ClinicalTrial) PublishedAt() *time.Time { return c.Date }
func (*ClinicalTrial) node()                     {}

func (j *Journal) NodeID() int    { return j.ID }
func (j *Journal) Kind() NodeKind { return KindJournal }
func (*Journal) node()            {}

// NormalizeName schreibt einen Wirkstoffnamen klein und entfernt Leerraum am Rand.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Mentions meldet, ob der Name in content vorkommt.
func (d *Drug) Mentions(content string) bool {
	return strings.Contains(content, d.Name)
}

// NewNode baut den Knoten der Art kind aus einem Datensatz.
func NewNode(kind NodeKind, id int, rec Record) (Node, error) {
	switch kind {
	case KindDrug:
		return NewDrug(id, rec)
	case KindJournal:
		return NewJournal(id, rec)
	case KindPublication:
		return NewPublication(id, rec)
	case KindClinicalTrial:
		return NewClinicalTrial(id, rec)
	}
	return nil, malformed(kind, "unknown node kind")
}

// NewDrug baut einen Drug. Nur hier wird der Name normalisiert.
func NewDrug(id int, rec Record) (*Drug, error) {
	f := newFields(KindDrug, rec)
	name := f.required("name")
	atc := f.required("atccode")
	if err := f.done(); err != nil {
		return nil, err
	}
	name = NormalizeName(name)
	if name == "" {
		return nil, malformed(KindDrug, "name is blank")
	}
	return &Drug{ID: id, Name: name, ATCCode: atc}, nil
}

// NewJournal baut ein Journal.
func NewJournal(id int, rec Record) (*Journal, error) {
	f := newFields(KindJournal, rec)
	name := f.required("name")
	if err := f.done(); err != nil {
		return nil, err
	}
	return &Journal{ID: id, Name: name}, nil
}

// NewPublication baut eine Publikation.
func NewPublication(id int, rec Record) (*Publication, error) {
	f := newFields(KindPublication, rec)
	title := f.required("title")
	date := f.date("date")
	baseID := f.optional("base_id")
	if err := f.done(); err != nil {
		return nil, err
	}
	return &Publication{ID: id, Title: title, Date: date, BaseID: baseID}, nil
}

// NewClinicalTrial baut eine klinische Studie.
func NewClinicalTrial(id int, rec Record) (*ClinicalTrial, error) {
	f := newFields(KindClinicalTrial, rec)
	title := f.required("title")
	date := f.date("date")
	baseID := f.optional("base_id")
	if err := f.done(); err != nil {
		return nil, err
	}
	return &ClinicalTrial{ID: id, Title: title, Date: date, BaseID: baseID}, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate liest die ISO-8601-Daten aus dem Ingest.
func ParseDate(value string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		t, perr := time.Parse(layout, value)
		if perr == nil {
			return t.UTC(), nil
		}
		err = perr
	}
	return time.Time{}, err
}

// fields liest die Felder eines Datensatzes und merkt sich den ersten Fehler.
type fields struct {
	kind NodeKind
	rec  Record
	seen map[string]struct{}
	err  error
}

func newFields(kind NodeKind, rec Record) *fields {
	return &fields{kind: kind, rec: rec, seen: make(map[string]struct{}, len(rec))}
}

func (f *fields) lookup(key string) (string, bool) {
	f.seen[key] = struct{}{}
	raw, ok := f.rec[key]
	if !ok || raw == nil {
		return "", false
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case time.Time:
		s = v.UTC().Format(time.RFC3339Nano)
	default:
		f.fail("field %q has unsupported type %T", key, raw)
		return "", false
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func (f *fields) required(key string) string {
	s, ok := f.lookup(key)
	if !ok {
		f.fail("missing required field %q", key)
	}
	return s
}

func (f *fields) optional(key string) *string {
	s, ok := f.lookup(key)
	if !ok {
		return nil
	}
	return &s
}

func (f *fields) date(key string) *time.Time {
	s, ok := f.lookup(key)
	if !ok {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		f.fail("field %q: invalid date %q", key, s)
		return nil
	}
	return &t
}

func (f *fields) fail(format string, args ...any) {
	if f.err == nil {
		f.err = malformed(f.kind, format, args...)
	}
}

func (f *fields) done() error {
	if f.err != nil {
		return f.err
	}
	for key := range f.rec {
		if _, ok := f.seen[key]; !ok {
			return malformed(f.kind, "unknown field %q", key)
		}
	}
	return nil
}
