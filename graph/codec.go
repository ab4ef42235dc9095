package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

func (d *Drug) MarshalJSON() ([]byte, error) {
	type plain Drug
	return json.Marshal(struct {
		Type NodeKind `json:"type"`
		*plain
	}{KindDrug, (*plain)(d)})
}

func (p *Publication) MarshalJSON() ([]byte, error) {
	type plain Publication
	return json.Marshal(struct {
		Type NodeKind `json:"type"`
		*plain
	}{KindPublication, (*plain)(p)})
}

func (c *ClinicalTrial) MarshalJSON() ([]byte, error) {
	type plain ClinicalTrial
	return json.Marshal(struct {
		Type NodeKind `json:"type"`
		*plain
	}{KindClinicalTrial, (*plain)(c)})
}

func (j *Journal) MarshalJSON() ([]byte, error) {
	type plain Journal
	return json.Marshal(struct {
		Type NodeKind `json:"type"`
		*plain
	}{KindJournal, (*plain)(j)})
}

// MarshalJSON bettet beide Knoten vollständig ein.
func (l *Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string      `json:"id"`
		Type        LinkKind    `json:"type"`
		NodeA       Node        `json:"node_a"`
		NodeB       Node        `json:"node_b"`
		Date        *time.Time  `json:"date"`
		MentionType MentionKind `json:"mention_type,omitempty"`
	}{l.id, l.kind, l.nodeA, l.nodeB, l.date, l.mention})
}

// MarshalJSON schreibt das Dokument {"nodes": [...], "links": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	nodes := g.nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return json.Marshal(struct {
		Nodes []Node  `json:"nodes"`
		Links []*Link `json:"links"`
	}{nodes, g.Links()})
}

// Encode schreibt das Graph-Dokument nach w.
func (g *Graph) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(g)
}

type nodeHeader struct {
	ID   *int     `json:"id"`
	Type NodeKind `json:"type"`
}

type linkDocument struct {
	ID          string          `json:"id"`
	Type        LinkKind        `json:"type"`
	NodeA       json.RawMessage `json:"node_a"`
	NodeB       json.RawMessage `json:"node_b"`
	Date        *time.Time      `json:"date"`
	MentionType MentionKind     `json:"mention_type"`
}

// Decode liest ein Graph-Dokument. Knoten durchlaufen dieselben Konstruktoren wie beim
// Aufbau, eingebettete Knoten der Links werden über die id aufgelöst und die Links erneut
// geprüft. Der id-Zähler setzt nach der höchsten id fort.
func Decode(r io.Reader) (*Graph, error) {
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
		Links []linkDocument    `json:"links"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	g := New()
	byID := make(map[int]Node, len(doc.Nodes))
	for i, raw := range doc.Nodes {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("node #%d: %w", i, err)
		}
		if _, dup := byID[n.NodeID()]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", ErrInvalidDocument, n.NodeID())
		}
		byID[n.NodeID()] = n
		g.addNode(n)
	}

	for i, ld := range doc.Links {
		link, err := decodeLink(ld, byID)
		if err != nil {
			return nil, fmt.Errorf("link #%d (%s): %w", i, ld.ID, err)
		}
		g.AddLink(link)
	}
	return g, nil
}

func decodeNode(raw json.RawMessage) (Node, error) {
	var head nodeHeader
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if head.ID == nil {
		return nil, fmt.Errorf("%w: node without id", ErrInvalidDocument)
	}
	switch head.Type {
	case KindDrug, KindPublication, KindClinicalTrial, KindJournal:
	default:
		return nil, fmt.Errorf("%w: unknown node type %q", ErrInvalidDocument, head.Type)
	}

	var rec Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	delete(rec, "type")
	delete(rec, "id")
	for k, v := range rec {
		if v == nil {
			delete(rec, k)
		}
	}

	n, err := NewNode(head.Type, *head.ID, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return n, nil
}

func decodeLink(ld linkDocument, byID map[int]Node) (*Link, error) {
	a, err := resolveNode(ld.NodeA, byID)
	if err != nil {
		return nil, err
	}
	b, err := resolveNode(ld.NodeB, byID)
	if err != nil {
		return nil, err
	}

	var link *Link
	switch ld.Type {
	case LinkPublished:
		link, err = NewPublishedLink(a, b)
	case LinkMentioned:
		link, err = NewMentionedLink(a, b, ld.Date)
	default:
		return nil, fmt.Errorf("%w: unknown link type %q", ErrInvalidDocument, ld.Type)
	}
	if err != nil {
		return nil, err
	}
	if ld.ID != "" && ld.ID != link.ID() {
		return nil, fmt.Errorf("%w: id %q does not match participants (%s)", ErrInvalidDocument, ld.ID, link.ID())
	}
	return link, nil
}

func resolveNode(raw json.RawMessage, byID map[int]Node) (Node, error) {
	var head nodeHeader
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if head.ID == nil {
		return nil, fmt.Errorf("%w: link participant without id", ErrInvalidDocument)
	}
	n, ok := byID[*head.ID]
	if !ok {
		return nil, fmt.Errorf("%w: link references unknown node %d", ErrInvalidDocument, *head.ID)
	}
	if head.Type != "" && head.Type != n.Kind() {
		return nil, fmt.Errorf("%w: node %d is a %s, link embeds a %s", ErrInvalidDocument, *head.ID, n.Kind(), head.Type)
	}
	return n, nil
}
