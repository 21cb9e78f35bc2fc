package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/potolkibot/leadbot/internal/channels/avito"
	"github.com/potolkibot/leadbot/internal/channels/telegram"
	"github.com/potolkibot/leadbot/internal/channels/webchat"
	appconfig "github.com/potolkibot/leadbot/internal/config"
	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/internal/gazetteer"
	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/internal/llm"
	"github.com/potolkibot/leadbot/internal/memory"
	"github.com/potolkibot/leadbot/internal/notify"
	"github.com/potolkibot/leadbot/internal/observability/metrics"
	"github.com/potolkibot/leadbot/internal/pricing"
	"github.com/potolkibot/leadbot/internal/promo"
	"github.com/potolkibot/leadbot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadbot",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conversation memory: redis for multi-process deployments, files
	// otherwise.
	var store memory.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = memory.NewRedisStore(rdb, nil)
		logger.Info("memory store: redis", "addr", cfg.RedisAddr)
	} else {
		fs, err := memory.NewFileStore(cfg.MemoryDir)
		if err != nil {
			logger.Error("memory store init failed", "dir", cfg.MemoryDir, "error", err)
			os.Exit(1)
		}
		store = fs
		logger.Info("memory store: files", "dir", cfg.MemoryDir)
	}

	var leadStore leads.Store
	fileLeads, err := leads.NewFileStore(cfg.LeadsLogPath, cfg.LeadCardsDir)
	if err != nil {
		logger.Error("lead store init failed", "error", err)
		os.Exit(1)
	}
	leadStore = fileLeads
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadStore = leads.NewPostgresStore(pool, fileLeads)
		logger.Info("lead store: postgres with file mirror")
	}

	price, err := pricing.NewEngine(cfg.PricingPath)
	if err != nil {
		logger.Error("pricing rules load failed", "path", cfg.PricingPath, "error", err)
		os.Exit(1)
	}

	promos, err := promo.NewManager(cfg.PromosPath)
	if err != nil {
		logger.Error("promotions load failed", "path", cfg.PromosPath, "error", err)
		os.Exit(1)
	}

	var tgClient *telegram.Client
	if cfg.TelegramBotToken != "" {
		tgClient = telegram.NewClient(cfg.TelegramBotToken)
	}

	var chat notify.ChatSender
	if tgClient != nil && cfg.CallcenterChatID != 0 {
		chat = telegram.NewCallcenter(tgClient, cfg.CallcenterChatID)
	} else {
		chat = notify.NewStubChatSender(logger)
	}
	var email notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		email = sg
	} else {
		email = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(chat, email, cfg.LeadEmailTo, logger)

	var completion llm.Client
	if cfg.OllamaModel != "" {
		completion = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaTimeout)
	}

	registry := prometheus.NewRegistry()
	dialogMetrics := metrics.NewDialogMetrics(registry)

	engine := dialog.NewEngine(
		store,
		gazetteer.Default(),
		price,
		promos,
		leadStore,
		notifier,
		completion,
		dialogMetrics,
		logger,
		dialog.Options{ManualWindow: cfg.ManualWindow},
	)

	if tgClient != nil {
		adapter := telegram.NewAdapter(tgClient, engine, telegram.AdapterConfig{
			PromoImagePath: cfg.PromoImagePath,
			DebounceDelay:  cfg.DebounceDelay,
		}, logger)
		go adapter.Run(ctx)
		logger.Info("telegram channel started")
	} else {
		logger.Info("telegram channel disabled: no bot token")
	}

	if cfg.AvitoClientID != "" && cfg.AvitoClientSecret != "" && cfg.AvitoUserID != 0 {
		avitoClient, err := avito.NewClient(avito.Config{
			ClientID:     cfg.AvitoClientID,
			ClientSecret: cfg.AvitoClientSecret,
			UserID:       cfg.AvitoUserID,
			TokenPath:    cfg.AvitoTokenPath,
		})
		if err != nil {
			logger.Error("avito client init failed", "error", err)
			os.Exit(1)
		}
		poller := avito.NewPoller(avitoClient, engine, avito.PollerConfig{
			UserID:        cfg.AvitoUserID,
			AllowedTitles: avito.ParseAllowedTitles(cfg.AvitoTitles),
			Interval:      cfg.AvitoPollInterval,
		}, logger)
		go poller.Run(ctx)
		logger.Info("avito channel started", "user_id", cfg.AvitoUserID)
	} else {
		logger.Info("avito channel disabled: credentials not set")
	}

	webHandler := webchat.NewHandler(engine, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Route("/webchat", func(r chi.Router) {
		r.Get("/ws", webHandler.HandleWebSocket)
		r.Post("/message", webHandler.HandleMessage)
		r.Get("/history", webHandler.HandleHistory)
	})

	// no read/write timeouts: webchat sessions hold the connection open
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
