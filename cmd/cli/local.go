package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/osz-extract-go/internal/app"
	"github.com/yourusername/osz-extract-go/internal/domain"
	"github.com/yourusername/osz-extract-go/internal/infrastructure"
	"github.com/yourusername/osz-extract-go/pkg/logger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [beatmapset-id...]",
	Short: "Acquire beatmapsets in this process without the server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parallel, _ := cmd.Flags().GetInt("parallel")
		token, _ := cmd.Flags().GetString("token")
		verbose, _ := cmd.Flags().GetBool("verbose")

		reqs := make([]domain.DownloadRequest, 0, len(args))
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid beatmapset id %q", arg)
			}
			reqs = append(reqs, domain.DownloadRequest{ContentID: id, AccessToken: token})
		}
		cmd.SilenceUsage = true

		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		log, err := logger.New(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
		if err != nil {
			return err
		}
		defer log.Sync()

		multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: config.Logging.Level, LogsDir: config.Library.LogsDir})
		if err != nil {
			return err
		}
		defer multiLog.Close()

		runtime, err := app.NewRuntime(config, afero.NewOsFs(), log, multiLog)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results := runtime.Orchestrator.RunAll(ctx, reqs, parallel)

		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := runtime.Close(closeCtx); err != nil {
			log.Warn("Failed to close pipeline", zap.Error(err))
		}

		return reportResults(cmd.OutOrStdout(), results)
	},
}

// reportResults prints one line per acquisition and fails if any did not succeed
func reportResults(w io.Writer, results []domain.AcquireResult) error {
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(w, "%d: ok via %s, %d track(s)\n", r.ContentID, r.Source, len(r.Tracks))
			for _, t := range r.Tracks {
				fmt.Fprintf(w, "    %s\n", t.FilePath)
			}
			continue
		}
		fmt.Fprintf(w, "%d: failed: %s\n", r.ContentID, r.Error)
	}

	if ok := app.Succeeded(results); ok != len(results) {
		return fmt.Errorf("%d of %d acquisitions failed", len(results)-ok, len(results))
	}
	return nil
}

var extractCmd = &cobra.Command{
	Use:   "extract [archive.osz]",
	Short: "Extract audio from a local beatmapset archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outDir, _ := cmd.Flags().GetString("out")
		preview, _ := cmd.Flags().GetBool("preview")
		maxSize, _ := cmd.Flags().GetInt64("max-size")

		fs := afero.NewOsFs()
		data, err := afero.ReadFile(fs, args[0])
		if err != nil {
			fail(err)
		}

		allowed := domain.LibraryAudioExtensions
		limit := 0
		if preview {
			allowed = domain.PreviewAudioExtensions
			limit = 1
		}

		written, err := infrastructure.ExtractToDir(context.Background(), fs, data, outDir, domain.NewAllowList(allowed), maxSize, limit)
		if err != nil {
			fail(err)
		}
		for _, path := range written {
			fmt.Println(path)
		}
	},
}

func init() {
	fetchCmd.Flags().IntP("parallel", "p", app.DefaultBatchParallelism, "Number of beatmapsets acquired at once")
	fetchCmd.Flags().String("token", os.Getenv("OSU_ACCESS_TOKEN"), "osu! API bearer token")
	fetchCmd.Flags().BoolP("verbose", "v", false, "Log pipeline progress to stderr")

	extractCmd.Flags().StringP("out", "o", ".", "Output directory")
	extractCmd.Flags().Bool("preview", false, "Write only the first .mp3 member")
	extractCmd.Flags().Int64("max-size", domain.DefaultMaxAssetSize, "Largest audio member to extract in bytes")
}
