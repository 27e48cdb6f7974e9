package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/api"
	"github.com/yourusername/osz-extract-go/api/handlers"
	"github.com/yourusername/osz-extract-go/internal/app"
	"github.com/yourusername/osz-extract-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.osz-extract, /etc/osz-extract)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Category logs: acquire, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Library.LogsDir,
	})
	if err != nil {
		log.Fatal("Failed to initialize category logs", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting osz-extract server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("library_root", config.Library.Root))

	runtime, err := app.NewRuntime(config, afero.NewOsFs(), log, multiLog)
	if err != nil {
		log.Fatal("Failed to initialize pipeline", zap.Error(err))
	}

	router := api.SetupRouter(api.RouterConfig{
		Acquisitions: runtime.Orchestrator,
		Library:      runtime.Library,
		Store:        runtime.Repo,
		Logger:       log,
		EventLogger:  multiLog,
		LogsDir:      config.Library.LogsDir,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := runtime.Close(shutdownCtx); err != nil {
		log.Error("Error stopping acquisitions", zap.Error(err))
	}

	log.Info("Server exited")
}
