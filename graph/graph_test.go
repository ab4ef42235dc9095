package graph

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func emergencyNursingSources() (drugs, journals, publications, trials Source) {
	drugs = Records{Table: "drugs", Rows: []Record{
		{"atccode": "A04AD", "name": "diphenhydramine"},
		{"atccode": "S03AA", "name": "tetracycline"},
	}}
	journals = Records{Table: "journals", Rows: []Record{
		{"name": "journal of emergency nursing"},
	}}
	publications = Records{Table: "pubmeds", Rows: []Record{
		{"base_id": "1", "title": "a 44-year-old man with erythema of the face diphenhydramine, neck, and chest, weakness, and palpitations", "date": "2019-01-01T00:00:00.000Z", "journal": "journal of emergency nursing"},
	}}
	trials = Records{Table: "clinical_trials", Rows: []Record{
		{"base_id": "NCT01967433", "title": "use of diphenhydramine as an adjunctive sedative for colonoscopy in patients chronically on opioids", "date": "2020-01-01T00:00:00.000Z", "journal": "journal of emergency nursing"},
		{"base_id": "NCT04189588", "title": "phase 2 study iv quzyttir™ (cetirizine hydrochloride injection) vs v diphenhydramine", "date": "2020-01-01T00:00:00.000Z", "journal": "journal of emergency nursing"},
	}}
	return
}

func buildEmergencyNursing(t *testing.T) *Graph {
	t.Helper()
	drugs, journals, publications, trials := emergencyNursingSources()
	g, err := NewBuilder(nil).Build(context.Background(), drugs, journals, publications, trials)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return g
}

func TestBuildDrugMentions(t *testing.T) {
	t.Parallel()

	g := buildEmergencyNursing(t)
	res := g.MentionsOf([]string{"diphenhydramine"})

	links, ok := res["diphenhydramine"]
	if !ok {
		t.Fatalf("expected diphenhydramine in result, got %v", res)
	}
	if len(links) != 4 {
		t.Fatalf("expected 4 mentions, got %d", len(links))
	}

	counts := map[MentionKind]int{}
	for _, l := range links {
		counts[l.MentionKind()]++
	}
	if counts[MentionJournal] != 1 {
		t.Fatalf("expected 1 journal mention, got %d", counts[MentionJournal])
	}
	if counts[MentionPublication] != 1 {
		t.Fatalf("expected 1 publication mention, got %d", counts[MentionPublication])
	}
	if counts[MentionClinicalTrial] != 2 {
		t.Fatalf("expected 2 clinical trial mentions, got %d", counts[MentionClinicalTrial])
	}
}

func TestBuildAssignsIDsInConstructionOrder(t *testing.T) {
	t.Parallel()

	g := buildEmergencyNursing(t)
	wantKinds := []NodeKind{KindDrug, KindDrug, KindJournal, KindPublication, KindClinicalTrial, KindClinicalTrial}

	nodes := g.Nodes()
	if len(nodes) != len(wantKinds) {
		t.Fatalf("expected %d nodes, got %d", len(wantKinds), len(nodes))
	}
	for i, n := range nodes {
		if n.NodeID() != i {
			t.Fatalf("node #%d has id %d", i, n.NodeID())
		}
		if n.Kind() != wantKinds[i] {
			t.Fatalf("node #%d: expected %s, got %s", i, wantKinds[i], n.Kind())
		}
	}

	for _, id := range []string{"2_3", "2_4", "2_5", "0_3", "0_4", "0_5", "0_2"} {
		if !g.HasLink(id) {
			t.Fatalf("expected link %s", id)
		}
	}
	if g.LinkCount() != 7 {
		t.Fatalf("expected 7 links, got %d", g.LinkCount())
	}
}

func TestJournalMentionUsesPublishedDate(t *testing.T) {
	t.Parallel()

	g := buildEmergencyNursing(t)
	for _, l := range g.Links() {
		if l.MentionKind() != MentionJournal {
			continue
		}
		// die erste übertragene Erwähnung stammt von der Publikation aus 2019
		if l.Date() == nil || l.Date().Year() != 2019 {
			t.Fatalf("unexpected journal mention date: %v", l.Date())
		}
		return
	}
	t.Fatalf("no journal mention found")
}

func TestAddLinkDeduplicates(t *testing.T) {
	t.Parallel()

	g := New()
	journal := &Journal{ID: 0, Name: "j"}
	pub := &Publication{ID: 1, Title: "t"}
	g.addNode(journal)
	g.addNode(pub)

	first, _ := NewPublishedLink(journal, pub)
	second, _ := NewPublishedLink(journal, pub)
	if !g.AddLink(first) {
		t.Fatalf("expected first link to be added")
	}
	if g.AddLink(second) {
		t.Fatalf("expected duplicate link to be rejected")
	}
	if g.LinkCount() != 1 {
		t.Fatalf("expected 1 link, got %d", g.LinkCount())
	}
	if g.NextID() != 2 {
		t.Fatalf("expected next id 2, got %d", g.NextID())
	}
}

func TestBuildSkipsUnknownJournal(t *testing.T) {
	t.Parallel()

	g, err := NewBuilder(nil).Build(context.Background(),
		Records{Rows: []Record{{"name": "ethanol", "atccode": "V03AB"}}},
		Records{Rows: []Record{{"name": "the lancet"}}},
		Records{Rows: []Record{{"title": "ethanol and sleep", "journal": "unknown journal"}}},
		Records{Rows: []Record{{"title": "ethanol in trials", "journal": nil}}},
	)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("expected no journal to be synthesized, got %d nodes", g.NodeCount())
	}
	s := g.Summarize()
	if s.Links[LinkPublished] != 0 || s.Mentions[MentionJournal] != 0 {
		t.Fatalf("unexpected links: %+v", s)
	}
	if s.Mentions[MentionPublication] != 1 || s.Mentions[MentionClinicalTrial] != 1 {
		t.Fatalf("unexpected mentions: %+v", s)
	}
}

func TestBuildDoesNotMutateRecords(t *testing.T) {
	t.Parallel()

	rec := Record{"title": "t", "journal": "j"}
	_, err := NewBuilder(nil).Build(context.Background(), nil,
		Records{Rows: []Record{{"name": "j"}}},
		Records{Rows: []Record{rec}}, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if _, ok := rec["journal"]; !ok {
		t.Fatalf("expected caller record to keep its journal field")
	}
}

func TestBuildAbortsOnMalformedRecord(t *testing.T) {
	t.Parallel()

	g, err := NewBuilder(nil).Build(context.Background(),
		Records{Rows: []Record{{"name": "ethanol", "atccode": "V03AB"}}},
		Records{Rows: []Record{{"name": "j"}}},
		Records{Rows: []Record{{"date": "2020-01-01", "journal": "j"}}},
		nil,
	)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if g != nil {
		t.Fatalf("expected no graph on failure")
	}
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "broken" }

func (f failingSource) Load(context.Context) ([]Record, error) { return nil, f.err }

func TestBuildPropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("open journals.json: no such file or directory")
	_, err := NewBuilder(nil).Build(context.Background(), nil, failingSource{err: sourceErr}, nil, nil)
	if err != sourceErr {
		t.Fatalf("expected source error unchanged, got %v", err)
	}
}

func TestDistinctDrugCountPerJournal(t *testing.T) {
	t.Parallel()

	g, err := NewBuilder(nil).Build(context.Background(),
		Records{Rows: []Record{
			{"name": "diphenhydramine", "atccode": "A04AD"},
			{"name": "ethanol", "atccode": "V03AB"},
		}},
		Records{Rows: []Record{{"name": "journal a"}, {"name": "journal b"}}},
		Records{Rows: []Record{
			{"title": "diphenhydramine in the er", "journal": "journal a"},
			{"title": "ethanol and diphenhydramine", "journal": "journal b"},
		}},
		Records{Rows: []Record{
			{"title": "diphenhydramine trial one", "journal": "journal a"},
			{"title": "diphenhydramine trial two", "journal": "journal a"},
		}},
	)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	stats := g.DistinctDrugCountPerJournal()
	if len(stats) != 2 {
		t.Fatalf("expected 2 journals, got %+v", stats)
	}
	if stats[0].JournalName != "journal b" || stats[0].DrugCount != 2 {
		t.Fatalf("unexpected first stat: %+v", stats[0])
	}
	if stats[1].JournalName != "journal a" || stats[1].DrugCount != 1 {
		t.Fatalf("unexpected second stat: %+v", stats[1])
	}
	if stats[1].JournalID != 2 {
		t.Fatalf("expected journal a to have id 2, got %d", stats[1].JournalID)
	}
}

func TestMentionsOfUnknownAndUnnormalizedNames(t *testing.T) {
	t.Parallel()

	g := buildEmergencyNursing(t)
	res := g.MentionsOf([]string{" Tetracycline", "aspirin"})

	if _, ok := res["aspirin"]; ok {
		t.Fatalf("unknown drug must be absent")
	}
	links, ok := res["tetracycline"]
	if !ok {
		t.Fatalf("expected tetracycline to be resolved, got %v", res)
	}
	if len(links) != 0 {
		t.Fatalf("expected no mentions for tetracycline, got %d", len(links))
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	t.Parallel()

	first := buildEmergencyNursing(t)
	second := buildEmergencyNursing(t)

	var a, b bytes.Buffer
	if err := first.Encode(&a); err != nil {
		t.Fatalf("encode first: %v", err)
	}
	if err := second.Encode(&b); err != nil {
		t.Fatalf("encode second: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("expected identical documents for identical inputs")
	}
}
