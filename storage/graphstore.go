package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"pharma-graph/graph"
	"pharma-graph/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNoSnapshot wird geliefert, wenn noch kein Graph gespeichert wurde.
var ErrNoSnapshot = errors.New("no graph snapshot stored")

const batchSize = 500

// GraphStore legt gebaute Graphen als Snapshots in der Datenbank ab.
type GraphStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenGraphStore verbindet sich mit PostgreSQL und migriert die Snapshot-Tabellen.
func OpenGraphStore(dsn string, log *zap.Logger) (*GraphStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect graph database: %w", err)
	}
	s := NewGraphStore(db, log)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGraphStore nutzt eine bestehende Verbindung.
func NewGraphStore(db *gorm.DB, log *zap.Logger) *GraphStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GraphStore{db: db, logger: log}
}

// Migrate legt die Tabellen an bzw. aktualisiert sie.
func (s *GraphStore) Migrate() error {
	return s.db.AutoMigrate(&models.GraphSnapshot{}, &models.GraphNode{}, &models.GraphLink{})
}

// Save speichert g samt Dokument, Knoten- und Kantenzeilen in einer Transaktion.
func (s *GraphStore) Save(ctx context.Context, g *graph.Graph, s3Link string) (*models.GraphSnapshot, error) {
	var doc bytes.Buffer
	if err := g.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	snapshot := &models.GraphSnapshot{
		RunID:     uuid.NewString(),
		NodeCount: g.NodeCount(),
		LinkCount: g.LinkCount(),
		NextID:    g.NextID(),
		S3Link:    s3Link,
		Document:  datatypes.JSON(doc.Bytes()),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}

		nodes := nodeRows(snapshot.ID, g.Nodes())
		if len(nodes) > 0 {
			if err := tx.CreateInBatches(nodes, batchSize).Error; err != nil {
				return err
			}
		}

		links := linkRows(snapshot.ID, g.Links())
		if len(links) > 0 {
			// Unique-Edge: doppelte Link-IDs werden ignoriert
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "snapshot_id"}, {Name: "link_id"}},
				DoNothing: true,
			}).CreateInBatches(links, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save graph snapshot", zap.Error(err))
		return nil, fmt.Errorf("save graph snapshot: %w", err)
	}

	s.logger.Info("Graph snapshot saved",
		zap.String("run_id", snapshot.RunID),
		zap.Int("nodes", snapshot.NodeCount),
		zap.Int("links", snapshot.LinkCount))
	return snapshot, nil
}

// LoadLatest liefert den zuletzt gespeicherten Graphen.
func (s *GraphStore) LoadLatest(ctx context.Context) (*graph.Graph, *models.GraphSnapshot, error) {
	var snapshot models.GraphSnapshot
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoSnapshot
		}
		return nil, nil, fmt.Errorf("load graph snapshot: %w", err)
	}

	g, err := graph.Decode(bytes.NewReader(snapshot.Document))
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot %s: %w", snapshot.RunID, err)
	}
	return g, &snapshot, nil
}

// List gibt die letzten Snapshots ohne Dokument zurück, neueste zuerst.
func (s *GraphStore) List(ctx context.Context, limit int) ([]models.GraphSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snapshots []models.GraphSnapshot
	err := s.db.WithContext(ctx).
		Omit("document").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("list graph snapshots: %w", err)
	}
	return snapshots, nil
}

// Links liefert die Kantenzeilen eines Snapshots in Speicherreihenfolge.
func (s *GraphStore) Links(ctx context.Context, snapshotID uint) ([]models.GraphLink, error) {
	var links []models.GraphLink
	err := s.db.WithContext(ctx).Where("snapshot_id = ?", snapshotID).Order("id").Find(&links).Error
	return links, err
}

func nodeRows(snapshotID uint, nodes []graph.Node) []models.GraphNode {
	rows := make([]models.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		row := models.GraphNode{SnapshotID: snapshotID, NodeID: n.NodeID(), Kind: string(n.Kind())}
		switch v := n.(type) {
		case *graph.Drug:
			row.Name, row.ATCCode = v.Name, v.ATCCode
		case *graph.Journal:
			row.Name = v.Name
		case *graph.Publication:
			row.Title, row.Date = v.Title, v.Date
			if v.BaseID != nil {
				row.BaseID = *v.BaseID
			}
		case *graph.ClinicalTrial:
			row.Title, row.Date = v.Title, v.Date
			if v.BaseID != nil {
				row.BaseID = *v.BaseID
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func linkRows(snapshotID uint, links []*graph.Link) []models.GraphLink {
	rows := make([]models.GraphLink, 0, len(links))
	for _, l := range links {
		rows = append(rows, models.GraphLink{
			SnapshotID:  snapshotID,
			LinkID:      l.ID(),
			Type:        string(l.Kind()),
			MentionType: string(l.MentionKind()),
			NodeA:       l.NodeA().NodeID(),
			NodeB:       l.NodeB().NodeID(),
			Date:        l.Date(),
		})
	}
	return rows
}
