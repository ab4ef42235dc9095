package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"pharma-graph/config"
	"pharma-graph/graph"
	"pharma-graph/models"
	"pharma-graph/providers/tables"
	"pharma-graph/storage"
)

// ErrRebuildRunning wird geliefert, wenn bereits ein Rebuild läuft.
var ErrRebuildRunning = errors.New("graph rebuild already running")

// ErrNoGraph wird geliefert, solange kein Graph geladen ist.
var ErrNoGraph = errors.New("no graph loaded")

// ObjectStore ist der Teil des S3-Buckets, den der GraphService braucht.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// SnapshotStore speichert gebaute Graphen dauerhaft.
type SnapshotStore interface {
	Save(ctx context.Context, g *graph.Graph, s3Link string) (*models.GraphSnapshot, error)
	LoadLatest(ctx context.Context) (*graph.Graph, *models.GraphSnapshot, error)
	List(ctx context.Context, limit int) ([]models.GraphSnapshot, error)
}

// GraphService baut, speichert und veröffentlicht Graphen und hält den aktuell
// ausgelieferten Graphen für den HTTP-Server.
type GraphService struct {
	Config  *config.Config
	Logger  *zap.Logger
	Builder *graph.Builder
	Objects ObjectStore   // nil = kein Upload
	Store   SnapshotStore // nil = keine Snapshots

	mu      sync.RWMutex
	current *graph.Graph

	rebuild sync.Mutex
}

// NewGraphService erstellt eine neue Instanz des GraphService.
func NewGraphService(cfg *config.Config, logger *zap.Logger, objects ObjectStore, store SnapshotStore) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{
		Config:  cfg,
		Logger:  logger,
		Builder: graph.NewBuilder(logger.Named("builder")),
		Objects: objects,
		Store:   store,
	}
}

// BuildFromDir baut einen Graphen aus den normalisierten Tabellen in dir.
func (s *GraphService) BuildFromDir(ctx context.Context, dir string) (*graph.Graph, error) {
	started := time.Now()
	t := tables.FromDir(dir)
	g, err := s.Builder.Build(ctx, t.Drugs, t.Journals, t.Publications, t.ClinicalTrials)
	observeBuild(started, err)
	if err != nil {
		s.Logger.Error("Graph build failed", zap.String("dir", dir), zap.Error(err))
		return nil, err
	}
	return g, nil
}

// Save schreibt das Graph-Dokument nach path (über Temp-Datei und Umbenennen).
func (s *GraphService) Save(g *graph.Graph, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := g.Encode(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return err
	}
	s.Logger.Info("Graph saved", zap.String("path", path), zap.Int("nodes", g.NodeCount()), zap.Int("links", g.LinkCount()))
	return nil
}

// Load liest ein Graph-Dokument von einem lokalen Pfad oder aus "s3://bucket/key".
func (s *GraphService) Load(ctx context.Context, location string) (*graph.Graph, error) {
	var data []byte
	if bucket, key, ok := storage.ParseObjectURI(location); ok {
		if s.Objects == nil {
			return nil, fmt.Errorf("load %s: s3 is not configured", location)
		}
		b, err := s.Objects.Download(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", location, err)
		}
		data = b
	} else {
		b, err := os.ReadFile(location)
		if err != nil {
			return nil, err
		}
		data = b
	}

	g, err := graph.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return g, nil
}

// Publish lädt das Dokument in den Bucket und legt einen Snapshot an, soweit konfiguriert.
// Zurückgegeben wird der S3-Link (leer ohne Upload).
func (s *GraphService) Publish(ctx context.Context, g *graph.Graph) (string, error) {
	var link string
	if s.Objects != nil {
		var buf bytes.Buffer
		if err := g.Encode(&buf); err != nil {
			return "", fmt.Errorf("encode graph: %w", err)
		}
		key := fmt.Sprintf("graphs/%s.json", time.Now().UTC().Format("20060102T150405Z"))
		l, err := s.Objects.Upload(ctx, key, buf.Bytes())
		if err != nil {
			s.Logger.Error("Graph upload failed", zap.String("key", key), zap.Error(err))
			return "", fmt.Errorf("upload graph: %w", err)
		}
		link = l
		s.Logger.Info("Graph uploaded", zap.String("link", link))
	}
	if s.Store != nil {
		if _, err := s.Store.Save(ctx, g, link); err != nil {
			return link, err
		}
	}
	return link, nil
}

// Current liefert den aktuell ausgelieferten Graphen (nil, wenn noch keiner geladen ist).
func (s *GraphService) Current() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Swap ersetzt den ausgelieferten Graphen.
func (s *GraphService) Swap(g *graph.Graph) {
	s.mu.Lock()
	s.current = g
	s.mu.Unlock()
	observeGraph(g)
}

// Restore lädt beim Start den letzten Graphen: zuerst die Graph-Datei, dann den
// neuesten Snapshot.
func (s *GraphService) Restore(ctx context.Context) error {
	g, err := s.Load(ctx, s.Config.GraphFile)
	if err == nil {
		s.Swap(g)
		s.Logger.Info("Graph restored from file", zap.String("path", s.Config.GraphFile))
		return nil
	}
	if s.Store == nil {
		return err
	}
	s.Logger.Warn("Graph file not loadable, trying snapshot store", zap.Error(err))
	g, snapshot, serr := s.Store.LoadLatest(ctx)
	if serr != nil {
		return errors.Join(err, serr)
	}
	s.Swap(g)
	s.Logger.Info("Graph restored from snapshot", zap.String("run_id", snapshot.RunID))
	return nil
}

// Rebuild baut den Graphen aus Config.DataDir neu, speichert und veröffentlicht ihn und
// tauscht ihn danach ein. Parallele Aufrufe liefern ErrRebuildRunning.
func (s *GraphService) Rebuild(ctx context.Context) (*graph.Graph, error) {
	if !s.rebuild.TryLock() {
		return nil, ErrRebuildRunning
	}
	defer s.rebuild.Unlock()

	log := s.Logger.With(zap.String("data_dir", s.Config.DataDir))
	log.Info("Rebuilding graph")

	g, err := s.BuildFromDir(ctx, s.Config.DataDir)
	if err != nil {
		return nil, err
	}
	if err := s.Save(g, s.Config.GraphFile); err != nil {
		log.Error("Failed to save graph", zap.Error(err))
		return nil, err
	}
	if _, err := s.Publish(ctx, g); err != nil {
		log.Error("Failed to publish graph", zap.Error(err))
		return nil, err
	}
	s.Swap(g)
	log.Info("Graph rebuilt", zap.Int("nodes", g.NodeCount()), zap.Int("links", g.LinkCount()))
	return g, nil
}
