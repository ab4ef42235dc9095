package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pharma-graph/graph"
)

var (
	graphBuildsTotal   *prometheus.CounterVec
	graphNodes         *prometheus.GaugeVec
	graphLinks         *prometheus.GaugeVec
	graphBuildDuration prometheus.Histogram
)

func init() {
	graphBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_builds_total",
			Help: "Total number of graph builds by status.",
		},
		[]string{"status"},
	)
	graphNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_nodes",
			Help: "Number of nodes in the current graph by kind.",
		},
		[]string{"kind"},
	)
	graphLinks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_links",
			Help: "Number of links in the current graph by kind.",
		},
		[]string{"kind"},
	)
	graphBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graph_build_duration_seconds",
			Help:    "Duration of graph builds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	prometheus.MustRegister(graphBuildsTotal, graphNodes, graphLinks, graphBuildDuration)
}

func observeBuild(started time.Time, err error) {
	graphBuildDuration.Observe(time.Since(started).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	graphBuildsTotal.WithLabelValues(status).Inc()
}

// observeGraph setzt die Gauges auf den Inhalt von g.
func observeGraph(g *graph.Graph) {
	s := g.Summarize()
	for _, kind := range []graph.NodeKind{graph.KindDrug, graph.KindJournal, graph.KindPublication, graph.KindClinicalTrial} {
		graphNodes.WithLabelValues(string(kind)).Set(float64(s.Nodes[kind]))
	}
	for _, kind := range []graph.LinkKind{graph.LinkPublished, graph.LinkMentioned} {
		graphLinks.WithLabelValues(string(kind)).Set(float64(s.Links[kind]))
	}
}
