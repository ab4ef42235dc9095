package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Verzeichnis mit den normalisierten Tabellen (drugs.json, journals.json, ...)
	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	GraphFile string `envconfig:"GRAPH_FILE" default:"graph.json"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Leer = kein geplanter Rebuild
	CronSchedule string `envconfig:"CRON_SCHEDULE"`

	// Leer = kein Snapshot-Store
	GraphDBDSN string `envconfig:"GRAPH_DB_DSN"`

	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	// Anzahl der Snapshot-Backups, die cmd/backup im Bucket behält
	KeepBackups int `envconfig:"KEEP_BACKUPS" default:"4"`
}

// S3Enabled meldet, ob Graph-Dokumente in den Bucket hochgeladen werden sollen.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// StoreEnabled meldet, ob Snapshots in der Datenbank abgelegt werden.
func (c *Config) StoreEnabled() bool {
	return c.GraphDBDSN != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
