package graph

import (
	"strconv"
	"time"
)

// LinkKind unterscheidet die Link-Arten.
type LinkKind string

const (
	// LinkPublished: Knoten B erschien in Journal A.
	LinkPublished LinkKind = "published"
	// LinkMentioned: Knoten B erwähnt Drug A.
	LinkMentioned LinkKind = "mentioned"
)

// MentionKind gibt an, welche Art Knoten den Drug erwähnt.
type MentionKind string

const (
	MentionClinicalTrial MentionKind = "clinical_trial"
	MentionPublication   MentionKind = "publication"
	MentionJournal       MentionKind = "journal"
)

// Link ist eine unveränderliche Beziehung zwischen zwei Knoten. Die Knoten gehören dem
// Graphen, der Link verweist nur auf sie.
type Link struct {
	id      string
	kind    LinkKind
	nodeA   Node
	nodeB   Node
	date    *time.Time
	mention MentionKind
}

// LinkID ist der Deduplizierungsschlüssel des Links von a nach b.
func LinkID(a, b int) string {
	return strconv.Itoa(a) + "_" + strconv.Itoa(b)
}

// NewPublishedLink verknüpft ein Journal mit einer Publikation oder Studie darin. Das
// Datum stammt vom veröffentlichten Knoten.
func NewPublishedLink(journal, published Node) (*Link, error) {
	if kindOf(journal) != KindJournal {
		return nil, &LinkTypeError{Link: LinkPublished, Position: "node_a", Got: kindOf(journal), Want: []NodeKind{KindJournal}}
	}
	got := kindOf(published)
	if got != KindPublication && got != KindClinicalTrial {
		return nil, &LinkTypeError{Link: LinkPublished, Position: "node_b", Got: got, Want: []NodeKind{KindPublication, KindClinicalTrial}}
	}
	t := published.(titled)
	return &Link{
		id:    LinkID(journal.NodeID(), published.NodeID()),
		kind:  LinkPublished,
		nodeA: journal,
		nodeB: published,
		date:  t.PublishedAt(),
	}, nil
}

// NewMentionedLink verknüpft einen Drug mit der Publikation, Studie oder dem Journal, das ihn erwähnt.
func NewMentionedLink(drug, target Node, date *time.Time) (*Link, error) {
	if kindOf(drug) != KindDrug {
		return nil, &LinkTypeError{Link: LinkMentioned, Position: "node_a", Got: kindOf(drug), Want: []NodeKind{KindDrug}}
	}
	var mention MentionKind
	switch kindOf(target) {
	case KindPublication:
		mention = MentionPublication
	case KindClinicalTrial:
		mention = MentionClinicalTrial
	case KindJournal:
		mention = MentionJournal
	default:
		return nil, &LinkTypeError{Link: LinkMentioned, Position: "node_b", Got: kindOf(target), Want: []NodeKind{KindPublication, KindClinicalTrial, KindJournal}}
	}
	return &Link{
		id:      LinkID(drug.NodeID(), target.NodeID()),
		kind:    LinkMentioned,
		nodeA:   drug,
		nodeB:   target,
		date:    date,
		mention: mention,
	}, nil
}

func (l *Link) ID() string               { return l.id }
func (l *Link) Kind() LinkKind           { return l.kind }
func (l *Link) NodeA() Node              { return l.nodeA }
func (l *Link) NodeB() Node              { return l.nodeB }
func (l *Link) Date() *time.Time         { return l.date }
func (l *Link) MentionKind() MentionKind { return l.mention }

// Touches meldet, ob n einer der beiden Knoten ist.
func (l *Link) Touches(n Node) bool {
	return l.nodeA.NodeID() == n.NodeID() || l.nodeB.NodeID() == n.NodeID()
}

// kindOf liefert "" für nil, auch für einen typisierten nil-Zeiger.
func kindOf(n Node) NodeKind {
	switch v := n.(type) {
	case *Drug:
		if v == nil {
			return ""
		}
	case *Publication:
		if v == nil {
			return ""
		}
	case *ClinicalTrial:
		if v == nil {
			return ""
		}
	case *Journal:
		if v == nil {
			return ""
		}
	case nil:
		return ""
	}
	return n.Kind()
}
