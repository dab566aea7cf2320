package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"booksdash/internal/pipeline"
	"booksdash/internal/platform/datasetmirror"
	"booksdash/internal/warehouse"
)

const downloadUserAgent = "booksdash-prepare/1.0"

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var (
		datasetDir    = flag.String("dataset-dir", getEnv("DATASET_DIR", "dataset"), "directory for raw files and generated artifacts")
		warehousePath = flag.String("warehouse", getEnv("WAREHOUSE_PATH", "dataset/warehouse.db"), "path of the sqlite warehouse file")
		skipDownload  = flag.Bool("skip-download", false, "use raw files already present in the dataset directory")
		force         = flag.Bool("force", false, "rebuild even when artifacts already exist")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(*datasetDir, 0o755); err != nil {
		log.Fatalf("cannot create dataset dir: %v", err)
	}

	db, err := warehouse.Open(*warehousePath)
	if err != nil {
		log.Fatalf("cannot open warehouse: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(db, migrationsDir()); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	baseURL := getEnv("DATASET_BASE_URL", "")
	if baseURL == "" && !*skipDownload {
		log.Fatalf("missing required environment variable: DATASET_BASE_URL")
	}
	downloader := datasetmirror.NewClient(baseURL, downloadUserAgent, 2, 3)

	repo := warehouse.NewSQLiteRepo(db, 30*time.Second)
	svc := pipeline.NewService(downloader, repo, pipeline.Config{
		DatasetDir:    *datasetDir,
		WarehousePath: *warehousePath,
		SkipDownload:  *skipDownload,
		Force:         *force,
	})

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("prepare failed: %v", err)
	}
	log.Println("prepare completed")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}
