package models

import (
	"time"

	"gorm.io/datatypes"
)

// GraphSnapshot speichert einen vollständig gebauten Graphen eines Laufs.
type GraphSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Lauf-ID (UUID), eindeutig pro Build
	RunID string `json:"run_id" gorm:"column:run_id;uniqueIndex;size:36;not null"`

	NodeCount int `json:"node_count"`
	LinkCount int `json:"link_count"`
	NextID    int `json:"next_id"`

	// Herkunft des Dokuments (leer, wenn nicht hochgeladen)
	S3Link string `json:"s3_link,omitempty" gorm:"type:text"`

	// Komplettes Graph-Dokument {"nodes": [...], "links": [...]}
	Document datatypes.JSON `json:"document,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (GraphSnapshot) TableName() string {
	return "graph_snapshots"
}
