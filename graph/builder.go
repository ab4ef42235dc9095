package graph

import (
	"context"

	"go.uber.org/zap"
)

// Source liefert die Datensätze einer normalisierten Tabelle.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Record, error)
}

// Records ist eine Source im Speicher.
type Records struct {
	Table string
	Rows  []Record
}

func (r Records) Name() string { return r.Table }

func (r Records) Load(context.Context) ([]Record, error) { return r.Rows, nil }

// Builder baut einen Graph aus den vier normalisierten Tabellen.
type Builder struct {
	Logger *zap.Logger
}

// NewBuilder erstellt einen Builder. Ohne logger wird nicht geloggt.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Logger: logger}
}

// Build legt Drugs, Journals, Publikationen und Studien in dieser Reihenfolge an, verknüpft
// Publikationen und Studien mit ihrem Journal und löst danach die Erwähnungen auf. Jeder
// Fehler bricht den Aufbau ab, es wird dann kein Graph geliefert. Fehler der Quellen werden
// unverändert zurückgegeben.
func (b *Builder) Build(ctx context.Context, drugs, journals, publications, trials Source) (*Graph, error) {
	b.Logger.Info("Building graph")
	g := New()

	drugNodes, err := b.buildNodes(ctx, g, KindDrug, drugs, nil)
	if err != nil {
		return nil, err
	}
	if _, err := b.buildNodes(ctx, g, KindJournal, journals, nil); err != nil {
		return nil, err
	}
	index := g.JournalIndex()

	publicationNodes, err := b.buildNodes(ctx, g, KindPublication, publications, index)
	if err != nil {
		return nil, err
	}
	trialNodes, err := b.buildNodes(ctx, g, KindClinicalTrial, trials, index)
	if err != nil {
		return nil, err
	}

	targets := make([]titled, 0, len(publicationNodes)+len(trialNodes))
	for _, n := range append(publicationNodes, trialNodes...) {
		targets = append(targets, n.(titled))
	}
	drugList := make([]*Drug, 0, len(drugNodes))
	for _, n := range drugNodes {
		drugList = append(drugList, n.(*Drug))
	}

	b.Logger.Info("Resolving mentions", zap.Int("drugs", len(drugList)), zap.Int("titles", len(targets)))
	if err := resolveMentions(g, drugList, targets); err != nil {
		return nil, err
	}

	b.Logger.Info("Graph built", zap.Int("nodes", g.NodeCount()), zap.Int("links", g.LinkCount()))
	return g, nil
}

// buildNodes erzeugt einen Knoten pro Datensatz. Bei Publikationen und Studien wird das
// Feld "journal" entfernt und in journals nachgeschlagen. Ein unbekanntes Journal erzeugt
// weder Knoten noch Link.
func (b *Builder) buildNodes(ctx context.Context, g *Graph, kind NodeKind, src Source, journals map[string]*Journal) ([]Node, error) {
	if src == nil {
		return nil, nil
	}
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	log := b.Logger.With(zap.String("kind", string(kind)), zap.String("source", src.Name()))
	log.Debug("Building nodes", zap.Int("records", len(records)))

	nodes := make([]Node, 0, len(records))
	for _, rec := range records {
		var journal *Journal
		if kind == KindPublication || kind == KindClinicalTrial {
			rec, journal = popJournal(rec, journals)
		}

		n, err := NewNode(kind, g.allocateID(), rec)
		if err != nil {
			return nil, err
		}
		g.addNode(n)
		log.Debug("Node built", zap.Int("id", n.NodeID()))

		if journal != nil {
			link, err := NewPublishedLink(journal, n)
			if err != nil {
				return nil, err
			}
			if g.AddLink(link) {
				log.Debug("Link built", zap.String("link_id", link.ID()))
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// popJournal liefert eine Kopie von rec ohne das Feld journal und das genannte Journal.
func popJournal(rec Record, journals map[string]*Journal) (Record, *Journal) {
	raw, ok := rec["journal"]
	if !ok {
		return rec, nil
	}
	out := make(Record, len(rec)-1)
	for k, v := range rec {
		if k != "journal" {
			out[k] = v
		}
	}
	name, _ := raw.(string)
	if name == "" {
		return out, nil
	}
	return out, journals[name]
}
