package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	g := buildEmergencyNursing(t)

	var buf bytes.Buffer
	if err := g.Encode(&buf); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	encoded := buf.String()

	decoded, err := Decode(strings.NewReader(encoded))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.NodeCount() != g.NodeCount() || decoded.LinkCount() != g.LinkCount() {
		t.Fatalf("expected %d/%d nodes/links, got %d/%d", g.NodeCount(), g.LinkCount(), decoded.NodeCount(), decoded.LinkCount())
	}
	if decoded.NextID() != g.NextID() {
		t.Fatalf("expected next id %d, got %d", g.NextID(), decoded.NextID())
	}

	var again bytes.Buffer
	if err := decoded.Encode(&again); err != nil {
		t.Fatalf("Encode decoded returned error: %v", err)
	}
	if again.String() != encoded {
		t.Fatalf("round trip changed the document")
	}

	// eingebettete Knoten zeigen auf dieselben Instanzen wie die Knotenliste
	for _, l := range decoded.Links() {
		var found bool
		for _, n := range decoded.Nodes() {
			if n == l.NodeA() {
				found = true
			}
		}
		if !found {
			t.Fatalf("link %s does not reference a graph node", l.ID())
		}
	}

	stats := decoded.DistinctDrugCountPerJournal()
	if len(stats) != 1 || stats[0].DrugCount != 1 {
		t.Fatalf("unexpected stats after decode: %+v", stats)
	}
}

func TestEncodeNodeDiscriminator(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(&Drug{ID: 7, Name: "ethanol", ATCCode: "V03AB"})
	if err != nil {
		t.Fatalf("marshal drug: %v", err)
	}
	want := `{"type":"drug","id":7,"name":"ethanol","atccode":"V03AB"}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}

	empty, err := json.Marshal(New())
	if err != nil {
		t.Fatalf("marshal empty graph: %v", err)
	}
	if string(empty) != `{"nodes":[],"links":[]}` {
		t.Fatalf("unexpected empty document: %s", empty)
	}
}

func TestDecodeRejectsInconsistentDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "not json",
			doc:  `{"nodes": [`,
			want: ErrInvalidDocument,
		},
		{
			name: "unknown node type",
			doc:  `{"nodes":[{"type":"author","id":0}],"links":[]}`,
			want: ErrInvalidDocument,
		},
		{
			name: "duplicate node id",
			doc:  `{"nodes":[{"type":"journal","id":0,"name":"a"},{"type":"journal","id":0,"name":"b"}],"links":[]}`,
			want: ErrInvalidDocument,
		},
		{
			name: "link to unknown node",
			doc:  `{"nodes":[{"type":"journal","id":0,"name":"a"}],"links":[{"id":"0_1","type":"published","node_a":{"type":"journal","id":0},"node_b":{"type":"publication","id":1}}]}`,
			want: ErrInvalidDocument,
		},
		{
			name: "wrong participant kinds",
			doc:  `{"nodes":[{"type":"journal","id":0,"name":"a"},{"type":"journal","id":1,"name":"b"}],"links":[{"id":"0_1","type":"published","node_a":{"type":"journal","id":0},"node_b":{"type":"journal","id":1}}]}`,
			want: ErrInvalidLink,
		},
		{
			name: "id mismatch",
			doc:  `{"nodes":[{"type":"journal","id":0,"name":"a"},{"type":"publication","id":1,"title":"t"}],"links":[{"id":"1_0","type":"published","node_a":{"type":"journal","id":0},"node_b":{"type":"publication","id":1}}]}`,
			want: ErrInvalidDocument,
		},
		{
			name: "publication with blank title",
			doc:  `{"nodes":[{"type":"publication","id":0,"title":"","date":null,"base_id":null}],"links":[]}`,
			want: ErrMalformedRecord,
		},
		{
			name: "drug with blank atccode",
			doc:  `{"nodes":[{"type":"drug","id":0,"name":"ethanol","atccode":""}],"links":[]}`,
			want: ErrMalformedRecord,
		},
		{
			name: "node with unknown field",
			doc:  `{"nodes":[{"type":"journal","id":0,"name":"a","issn":"1234"}],"links":[]}`,
			want: ErrInvalidDocument,
		},
		{
			name: "node with invalid date",
			doc:  `{"nodes":[{"type":"clinical_trial","id":0,"title":"t","date":"someday"}],"links":[]}`,
			want: ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeNormalizesDrugNames(t *testing.T) {
	t.Parallel()

	doc := `{"nodes":[
		{"type":"drug","id":0,"name":" Diphenhydramine ","atccode":"A04AD"},
		{"type":"publication","id":1,"title":"diphenhydramine in the er","date":"2019-01-01T00:00:00Z","base_id":null}
	],"links":[
		{"id":"0_1","type":"mentioned","node_a":{"type":"drug","id":0},"node_b":{"type":"publication","id":1},"date":"2019-01-01T00:00:00Z","mention_type":"publication"}
	]}`

	g, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	drug := g.Nodes()[0].(*Drug)
	if drug.Name != "diphenhydramine" {
		t.Fatalf("expected normalized name, got %q", drug.Name)
	}
	if len(g.MentionsOf([]string{"diphenhydramine"})["diphenhydramine"]) != 1 {
		t.Fatalf("expected one mention after decode")
	}
	pub := g.Nodes()[1].(*Publication)
	if pub.BaseID != nil || pub.Date == nil || pub.Date.Year() != 2019 {
		t.Fatalf("unexpected publication %+v", pub)
	}
}
