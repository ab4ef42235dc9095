package models

import (
	"time"
)

// GraphLink modelliert eine gerichtete Kante: node_a -> node_b (published/mentioned)
type GraphLink struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SnapshotID uint `json:"snapshot_id" gorm:"index:idx_graph_links_unique_edge,unique;not null"`

	// "<node_a>_<node_b>", pro Snapshot eindeutig
	LinkID string `json:"link_id" gorm:"index:idx_graph_links_unique_edge,unique;size:64"`

	Type        string     `json:"type" gorm:"index;size:32"`
	MentionType string     `json:"mention_type,omitempty" gorm:"size:32;default:''"`
	NodeA       int        `json:"node_a"`
	NodeB       int        `json:"node_b"`
	Date        *time.Time `json:"date,omitempty"`
}

func (GraphLink) TableName() string { return "graph_links" }
