// Package graph verknüpft Wirkstoffe mit den Publikationen, klinischen Studien und
// Journals, die sie erwähnen.
package graph

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Graph enthält Knoten und Links eines Aufbaus. Es wird nur angehängt, Link-IDs sind
// eindeutig. Gleichzeitiges Ändern ist nicht erlaubt.
type Graph struct {
	nodes  []Node
	links  *orderedmap.OrderedMap[string, *Link]
	nextID int
}

// New liefert einen leeren Graphen, die erste vergebene id ist 0.
func New() *Graph {
	return &Graph{links: orderedmap.New[string, *Link]()}
}

// allocateID vergibt die nächste Knoten-id. Ids werden nie wiederverwendet.
func (g *Graph) allocateID() int {
	id := g.nextID
	g.nextID++
	return id
}

func (g *Graph) addNode(n Node) {
	g.nodes = append(g.nodes, n)
	if n.NodeID() >= g.nextID {
		g.nextID = n.NodeID() + 1
	}
}

// AddLink registriert l, sofern es noch keinen Link mit derselben id gibt.
func (g *Graph) AddLink(l *Link) bool {
	if _, present := g.links.Get(l.ID()); present {
		return false
	}
	g.links.Set(l.ID(), l)
	return true
}

// HasLink meldet, ob ein Link mit dieser id existiert.
func (g *Graph) HasLink(id string) bool {
	_, ok := g.links.Get(id)
	return ok
}

// Nodes liefert die Knoten in Erstellungsreihenfolge.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Links liefert die Links in Registrierungsreihenfolge.
func (g *Graph) Links() []*Link {
	out := make([]*Link, 0, g.links.Len())
	for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) LinkCount() int { return g.links.Len() }

// NextID ist die id, die der nächste Knoten bekäme.
func (g *Graph) NextID() int { return g.nextID }

// JournalIndex bildet Journal-Namen auf die aktuell vorhandenen Journal-Knoten ab. Später
// hinzugefügte Journals fehlen im Ergebnis.
func (g *Graph) JournalIndex() map[string]*Journal {
	index := make(map[string]*Journal)
	for _, n := range g.nodes {
		if j, ok := n.(*Journal); ok {
			index[j.Name] = j
		}
	}
	return index
}

// Summary zählt Knoten und Links nach Art.
type Summary struct {
	Nodes    map[NodeKind]int    `json:"nodes"`
	Links    map[LinkKind]int    `json:"links"`
	Mentions map[MentionKind]int `json:"mentions"`
	NextID   int                 `json:"next_id"`
}

// Summarize zählt den Inhalt des Graphen nach Art.
func (g *Graph) Summarize() Summary {
	s := Summary{
		Nodes:    map[NodeKind]int{},
		Links:    map[LinkKind]int{},
		Mentions: map[MentionKind]int{},
		NextID:   g.nextID,
	}
	for _, n := range g.nodes {
		s.Nodes[n.Kind()]++
	}
	for pair := g.links.Oldest(); pair != nil; pair = pair.Next() {
		l := pair.Value
		s.Links[l.Kind()]++
		if l.Kind() == LinkMentioned {
			s.Mentions[l.MentionKind()]++
		}
	}
	return s
}
