package graph

import "sort"

// MentionsOf liefert für jeden angefragten Drug im Graphen seine Erwähnungs-Links in
// Registrierungsreihenfolge. Namen werden wie Drug-Namen normalisiert, unbekannte Namen
// fehlen im Ergebnis.
func (g *Graph) MentionsOf(names []string) map[string][]*Link {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[NormalizeName(name)] = struct{}{}
	}

	result := make(map[string][]*Link)
	for _, n := range g.nodes {
		d, ok := n.(*Drug)
		if !ok {
			continue
		}
		if _, ok := wanted[d.Name]; !ok {
			continue
		}
		links := []*Link{}
		for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.Kind() == LinkMentioned && pair.Value.Touches(d) {
				links = append(links, pair.Value)
			}
		}
		result[d.Name] = links
	}
	return result
}

// JournalStat ist die Zahl verschiedener Drugs, die ein Journal erwähnt.
type JournalStat struct {
	JournalName string `json:"journal_name"`
	JournalID   int    `json:"journal_id"`
	DrugCount   int    `json:"drug_count"`
}

// DistinctDrugCountPerJournal zählt pro Journal die verschiedenen erwähnten Drug-Namen,
// höchste Zahl zuerst. Bei Gleichstand gilt die Reihenfolge der ersten Erwähnung.
func (g *Graph) DistinctDrugCountPerJournal() []JournalStat {
	var stats []JournalStat
	position := make(map[int]int)
	drugs := make(map[int]map[string]struct{})

	for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
		l := pair.Value
		if l.Kind() != LinkMentioned || l.MentionKind() != MentionJournal {
			continue
		}
		journal := l.NodeB().(*Journal)
		drug := l.NodeA().(*Drug)

		i, ok := position[journal.ID]
		if !ok {
			i = len(stats)
			position[journal.ID] = i
			stats = append(stats, JournalStat{JournalName: journal.Name, JournalID: journal.ID})
			drugs[journal.ID] = make(map[string]struct{})
		}
		if _, seen := drugs[journal.ID][drug.Name]; !seen {
			drugs[journal.ID][drug.Name] = struct{}{}
			stats[i].DrugCount++
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].DrugCount > stats[j].DrugCount
	})
	return stats
}
