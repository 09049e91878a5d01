package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var coord *Coordinator

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openStore selects the storage backend: a remote Postgres store when
// DATABASE_URL is set, a local SQLite file otherwise. The two modes are
// mutually exclusive.
func openStore() (Store, bool, error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		migrationsPath := filepath.Join(".", "db", "migrations")
		store, err := NewPostgresStore(connStr, migrationsPath)
		if err != nil {
			return nil, false, err
		}
		slog.Info("Using remote Postgres store")
		return store, false, nil
	}

	dbPath := envOrDefault("LEDGER_DB_PATH", "./data/ledger.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, false, err
	}
	slog.Info("Using local SQLite store", "path", dbPath)
	return store, true, nil
}

func setupRouter(hub *Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(metricsMiddleware())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{envOrDefault("CORS_ORIGIN", "http://localhost:3001")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/api/partners", getPartners)
	r.POST("/api/partners", createPartner)
	r.DELETE("/api/partners/:id", deletePartner)
	r.GET("/api/partners/:id/statement", getPartnerStatement)
	r.GET("/api/projects", getProjects)
	r.POST("/api/projects", createProject)
	r.GET("/api/projects/:id/performance", getProjectPerformance)
	r.GET("/api/transactions", getTransactions)
	r.POST("/api/transactions", createTransaction)
	r.PUT("/api/transactions/:id", updateTransaction)
	r.DELETE("/api/transactions/:id", deleteTransaction)
	r.GET("/api/summary", getSummary)
	r.GET("/api/activity", getActivity)
	r.GET("/api/snapshot/export", exportSnapshot)
	r.POST("/api/snapshot/import", importSnapshot)
	r.GET("/api/events", handleEvents(hub))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		mode := "remote"
		if coord.Local() {
			mode = "local"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": mode})
	})

	return r
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, local, err := openStore()
	if err != nil {
		slog.Error("Opening store failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := NewHub()
	coord = NewCoordinator(ctx, store, hub, local)

	// In remote mode, merge the change feed from other sessions.
	if pg, ok := store.(*PostgresStore); ok {
		go pg.Listen(ctx, func(ev ChangeEvent) {
			coord.ApplyChangeEvent(ev)
		})
	}

	port := envOrDefault("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: setupRouter(hub),
	}

	go func() {
		slog.Info("Server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
