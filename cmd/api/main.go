// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/assistant"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/catalog"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/config"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/draft"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/handler"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/history"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/llm"
	natsclient "github.com/Santiagopro2002/Denuncias-gad-api/internal/nats"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/service"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/tools"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/tracing"
)

const serviceName = "denuncias-api"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting API server", zap.String("store", cfg.StoreDriver), zap.String("llm", cfg.DefaultLLM))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	checks := map[string]handler.Checker{
		"store": handler.CheckFunc(st.Ping),
	}

	var publisher service.EventPublisher = service.NoopPublisher{}
	if cfg.NATSEnabled {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:           cfg.NATSURL,
			Name:          cfg.NATSName,
			Token:         cfg.NATSToken,
			ReconnectWait: cfg.NATSReconnectWait,
			CAFile:        cfg.NATSCAFile,
			CertFile:      cfg.NATSCertFile,
			KeyFile:       cfg.NATSKeyFile,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = streamManager
		checks["nats"] = streamManager
	}

	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), cfg.LLMAPIKey())
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}

	// Domain components
	lookup := catalog.NewLookup(st)
	drafts := draft.NewService(st)
	engine := assistant.NewEngine(
		llmClient,
		tools.NewDispatcher(lookup, drafts),
		history.NewBuilder(st, cfg.ChatHistoryLimit),
		lookup,
		assistant.Config{
			Model:     cfg.LLMModel,
			MaxRounds: cfg.ChatMaxRounds,
			MaxTokens: cfg.LLMMaxTokens,
		},
		log,
	)

	conversationSvc := service.NewConversationService(st, publisher, log)
	messageSvc := service.NewMessageService(st, engine, publisher, log)
	complaintSvc := service.NewComplaintService(st, publisher, log)

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Health:            handler.NewHealthHandler(checks),
		Conversations:     handler.NewConversationHandler(conversationSvc, log),
		Messages:          handler.NewMessageHandler(messageSvc, log),
		Complaints:        handler.NewComplaintHandler(complaintSvc, log),
		Logger:            log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		mem := store.NewMemoryStore()
		mem.SeedCategories()
		for _, id := range cfg.MemoryCitizens {
			mem.AddCitizen(id)
		}
		log.Warn("using in-memory store; data is lost on restart", zap.Int("citizens", len(cfg.MemoryCitizens)))
		return mem, nil
	}

	if cfg.MigrateOnStart {
		db, err := store.OpenMigrationDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		err = store.MigrateUp(ctx, db)
		db.Close()
		if err != nil {
			return nil, err
		}
		log.Info("migrations applied")
	}

	return store.NewPostgresStore(ctx, cfg.DatabaseURL)
}
