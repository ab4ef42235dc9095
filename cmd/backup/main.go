package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"pharma-graph/config"
	"pharma-graph/storage"
)

const backupPrefix = "backups/"

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()
	logging.Info("Starting snapshot backup")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if !cfg.StoreEnabled() || !cfg.S3Enabled() {
		logging.Fatal("Backup needs GRAPH_DB_DSN and S3_BUCKET")
	}
	ctx := context.Background()

	// 1. Letzten Snapshot laden
	store, err := storage.OpenGraphStore(cfg.GraphDBDSN, logging)
	if err != nil {
		logging.Fatal("Failed to connect to graph database", zap.Error(err))
	}
	_, snapshot, err := store.LoadLatest(ctx)
	if err != nil {
		logging.Fatal("Failed to load latest snapshot", zap.Error(err))
	}

	// 2. Dokument komprimieren
	data, err := compress(snapshot.Document)
	if err != nil {
		logging.Fatal("Failed to compress snapshot", zap.Error(err))
	}

	// 3. Nach S3 hochladen
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	key := fmt.Sprintf("%sgraph-%s-%s.json.gz", backupPrefix, time.Now().UTC().Format("2006-01-02T15-04-05Z"), snapshot.RunID)
	link, err := storage.UploadFile(ctx, s3Client, cfg.S3Bucket, key, data, cfg)
	if err != nil {
		logging.Fatal("Failed to upload backup", zap.Error(err))
	}
	logging.Info("Backup uploaded", zap.String("link", link), zap.String("run_id", snapshot.RunID))

	// 4. Alte Backups rotieren
	if err := storage.RotateObjects(ctx, s3Client, cfg.S3Bucket, backupPrefix, cfg.KeepBackups, logging); err != nil {
		logging.Fatal("Failed to rotate old backups", zap.Error(err))
	}
	logging.Info("Backup finished")
}

func compress(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(doc); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
