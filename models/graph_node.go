package models

import (
	"time"
)

// GraphNode ist die flache Zeile eines Knotens innerhalb eines Snapshots.
type GraphNode struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SnapshotID uint `json:"snapshot_id" gorm:"index:idx_graph_nodes_unique_node,unique;not null"`
	NodeID     int  `json:"node_id" gorm:"index:idx_graph_nodes_unique_node,unique"`

	Kind string `json:"kind" gorm:"index;size:32"`

	// Drug/Journal
	Name    string `json:"name,omitempty"`
	ATCCode string `json:"atccode,omitempty" gorm:"column:atccode;size:32"`

	// Publication/ClinicalTrial
	Title  string     `json:"title,omitempty" gorm:"type:text"`
	Date   *time.Time `json:"date,omitempty"`
	BaseID string     `json:"base_id,omitempty" gorm:"index"`
}

func (GraphNode) TableName() string { return "graph_nodes" }
