package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"booksdash/internal/dashboard"
	"booksdash/internal/httpx"
	"booksdash/internal/warehouse"
)

func main() {
	_ = godotenv.Load(".env.local")

	serverAddress := getEnv("APP_ADDR", ":8080")
	warehousePath := getEnv("WAREHOUSE_PATH", "dataset/warehouse.db")
	datasetDir := getEnv("DATASET_DIR", "dataset")

	db := mustOpenWarehouse(warehousePath)
	defer db.Close()

	repo := warehouse.NewSQLiteRepo(db, 5*time.Second)
	svc := dashboard.NewService(repo)
	apiHandler := dashboard.NewHTTPHandler(svc)
	pageHandler := dashboard.NewPageHandler(svc, datasetDir)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			http.Error(w, "warehouse not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /v1/scorecard", apiHandler.Scorecard)
	router.HandleFunc("GET /v1/genres", apiHandler.Genres)
	router.HandleFunc("GET /v1/formats", apiHandler.Formats)
	router.HandleFunc("GET /v1/books/top", apiHandler.TopBooks)
	router.HandleFunc("GET /v1/authors/top", apiHandler.TopAuthors)
	router.HandleFunc("GET /v1/publishers/top", apiHandler.TopPublishers)
	router.HandleFunc("GET /v1/reviews/sentiment", apiHandler.ReviewSentiment)
	router.HandleFunc("GET /v1/reviews/highlights", apiHandler.ReviewHighlights)
	router.HandleFunc("GET /v1/reviews/wordcloud", apiHandler.WordCloud)

	router.HandleFunc("GET /{$}", pageHandler.Landing)
	router.HandleFunc("GET /dashboard", pageHandler.Main)
	router.HandleFunc("GET /dashboard/authors", pageHandler.Authors)
	router.Handle("GET /dataset/", http.StripPrefix("/dataset/", http.FileServer(http.Dir(datasetDir))))

	allowedOrigins := splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	handler := httpx.RequestIDMiddleware(
		httpx.AccessLogMiddleware(
			httpx.RecoveryMiddleware(
				httpx.CORSMiddleware(allowedOrigins)(
					httpx.SecurityHeadersMiddleware(router),
				),
			),
		),
	)

	httpServer := &http.Server{
		Addr:         serverAddress,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting dashboard on %s (warehouse %s)", serverAddress, warehousePath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func mustOpenWarehouse(path string) *sql.DB {
	db, err := warehouse.Open(path)
	if err != nil {
		log.Fatalf("cannot open warehouse: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		log.Fatalf("cannot ping warehouse (%s): %v", path, err)
	}
	log.Println("warehouse connection OK")
	return db
}
