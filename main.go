package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pharma-graph/config"
	"pharma-graph/graph"
	"pharma-graph/services"
	"pharma-graph/storage"
)

const usage = `usage: pharma-graph <command> [flags]

commands:
  ingest          read and clean the raw files, write the normalized tables
  build-graph     build the graph from the normalized tables
  mentions        print the mentions of one or more drugs
  journal-stats   print the number of distinct drugs per journal
  serve           run the HTTP server
`

// stringList sammelt wiederholte Flags (-d a -d b).
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logging, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	command, args := os.Args[1], os.Args[2:]
	err = run(ctx, command, args, cfg, logging, os.Stdout)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logging.Error("Command failed", zap.String("command", command), zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

func run(ctx context.Context, command string, args []string, cfg *config.Config, logging *zap.Logger, out io.Writer) error {
	switch command {
	case "ingest":
		return runIngest(ctx, args, logging)
	case "build-graph":
		return runBuildGraph(ctx, args, cfg, logging)
	case "mentions":
		return runMentions(ctx, args, cfg, logging, out)
	case "journal-stats":
		return runJournalStats(ctx, args, cfg, logging, out)
	case "serve":
		return runServe(ctx, cfg, logging)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIngest(ctx context.Context, args []string, logging *zap.Logger) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	pubmedFiles := fs.String("pubmed-files", "", "comma separated pubmed files (.csv or .json)")
	trialsFile := fs.String("clinical-trials-file", "", "clinical trials csv")
	drugFile := fs.String("drug-file", "", "drug csv")
	output := fs.String("o", "", "output directory")
	fs.StringVar(output, "output-dir", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var files []string
	for _, f := range strings.Split(*pubmedFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}

	res, err := services.NewIngestService(logging).Run(ctx, services.IngestRequest{
		PubmedFiles:        files,
		ClinicalTrialsFile: *trialsFile,
		DrugFile:           *drugFile,
		OutputDir:          *output,
	})
	if err != nil {
		return err
	}
	logging.Info("Tables written", zap.Strings("files", res.Files))
	return nil
}

func runBuildGraph(ctx context.Context, args []string, cfg *config.Config, logging *zap.Logger) error {
	fs := flag.NewFlagSet("build-graph", flag.ContinueOnError)
	input := fs.String("i", cfg.DataDir, "directory of the normalized tables")
	graphFile := fs.String("g", cfg.GraphFile, "graph document to write")
	publish := fs.Bool("publish", false, "upload to S3 and store a snapshot when configured")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := newGraphService(cfg, logging, *publish)
	if err != nil {
		return err
	}
	g, err := svc.BuildFromDir(ctx, *input)
	if err != nil {
		return err
	}
	if err := svc.Save(g, *graphFile); err != nil {
		return err
	}
	if *publish {
		if _, err := svc.Publish(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func runMentions(ctx context.Context, args []string, cfg *config.Config, logging *zap.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("mentions", flag.ContinueOnError)
	graphFile := fs.String("g", cfg.GraphFile, "graph document (path or s3://bucket/key)")
	var drugs stringList
	fs.Var(&drugs, "d", "drug name (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(drugs) == 0 {
		return errors.New("at least one -d drug is required")
	}

	svc, err := newGraphService(cfg, logging, false)
	if err != nil {
		return err
	}
	g, err := svc.Load(ctx, *graphFile)
	if err != nil {
		return err
	}

	res := mentionViews(g.MentionsOf(drugs))
	for _, name := range drugs {
		if _, ok := res[graph.NormalizeName(name)]; !ok {
			logging.Warn("Drug not found in graph", zap.String("drug", name))
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runJournalStats(ctx context.Context, args []string, cfg *config.Config, logging *zap.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("journal-stats", flag.ContinueOnError)
	graphFile := fs.String("g", cfg.GraphFile, "graph document (path or s3://bucket/key)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := newGraphService(cfg, logging, false)
	if err != nil {
		return err
	}
	g, err := svc.Load(ctx, *graphFile)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOURNAL\tID\tDRUGS")
	for _, s := range g.DistinctDrugCountPerJournal() {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.JournalName, s.JournalID, s.DrugCount)
	}
	return tw.Flush()
}

// newGraphService verbindet S3 und Snapshot-Store, soweit konfiguriert. Ohne withStore
// wird keine Datenbankverbindung aufgebaut.
func newGraphService(cfg *config.Config, logging *zap.Logger, withStore bool) (*services.GraphService, error) {
	var objects services.ObjectStore
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			return nil, fmt.Errorf("S3 client creation failed: %w", err)
		}
		objects = storage.NewBucket(s3Client, cfg)
	}

	var store services.SnapshotStore
	if withStore && cfg.StoreEnabled() {
		gs, err := storage.OpenGraphStore(cfg.GraphDBDSN, logging.Named("store"))
		if err != nil {
			return nil, err
		}
		logging.Info("Successfully connected to graph database.")
		store = gs
	}
	return services.NewGraphService(cfg, logging, objects, store), nil
}

func runServe(ctx context.Context, cfg *config.Config, logging *zap.Logger) error {
	svc, err := newGraphService(cfg, logging, true)
	if err != nil {
		return err
	}

	if err := svc.Restore(ctx); err != nil {
		logging.Warn("No graph restored, building from data dir", zap.Error(err))
		if _, err := svc.Rebuild(ctx); err != nil {
			logging.Error("Initial build failed, serving without graph", zap.Error(err))
		}
	}

	if cfg.CronSchedule != "" {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled rebuild...")
			if _, err := svc.Rebuild(context.Background()); err != nil {
				logging.Error("Cron job failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid CRON_SCHEDULE: %w", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	router := newRouter(cfg, svc, logging)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to run server: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
