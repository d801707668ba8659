package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"triage-assistant/internal/agent"
	"triage-assistant/internal/auth"
	"triage-assistant/internal/config"
	appmiddleware "triage-assistant/internal/http/middleware"
	"triage-assistant/internal/logging"
	"triage-assistant/internal/metrics"
	"triage-assistant/internal/report"
	"triage-assistant/internal/triage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	// 1. Infrastructure
	db := connectDB(cfg, logger)
	if db != nil {
		runMigrations(cfg, logger)
	}

	var sessions auth.SessionStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		sessions = auth.NewRedisSessionStore(client)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = auth.NewMemorySessionStore()
	}

	// 2. Clients
	completionClient := agent.NewClient(agent.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.CompletionTimeout,
	})

	// 3. Services
	triageMetrics := metrics.NewTriageMetrics(prometheus.DefaultRegisterer)
	userRepo := auth.NewNoopUserRepository()
	resultRepo := triage.NewNoopRepository()
	if db != nil {
		userRepo = auth.NewUserRepository(db)
		resultRepo = triage.NewRepository(db)
	}

	authSvc := auth.NewService(userRepo, sessions, cfg.SessionTTL,
		cfg.DoctorUsername, cfg.DoctorPassword, logger)
	triageSvc := triage.NewService(triage.NewConversations(), completionClient,
		resultRepo, triageMetrics, logger)
	pdfGen := report.NewGenerator()

	authHandler := auth.NewHandler(authSvc, logger)
	authHandler.OnLogout = triageSvc.EndSession
	triageHandler := triage.NewHandler(triageSvc, resultRepo, authSvc, pdfGen, logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(appmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(auth.Sessions(sessions))

	auth.RegisterRoutes(r, authHandler)
	triage.RegisterRoutes(r, triageHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	addr := ":" + cfg.Port
	logger.Info("server starting", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func connectDB(cfg *config.Config, logger *logging.Logger) *sql.DB {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, running without persistence; signup and the doctor dashboard will fail")
		return nil
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = db.PingContext(ctx)
			cancel()
		}
		if err == nil {
			logger.Info("connected to database")
			return db
		}
		logger.Info("waiting for database", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	logger.Error("could not connect to database", "error", err)
	os.Exit(1)
	return nil
}

func runMigrations(cfg *config.Config, logger *logging.Logger) {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		logger.Error("migration init failed", "error", err)
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration up failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")
}
