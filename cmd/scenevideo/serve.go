package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/scenevideo/internal/engine"
	"github.com/ivlev/scenevideo/internal/jobs"
	"github.com/ivlev/scenevideo/internal/server"
	"github.com/ivlev/scenevideo/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API: POST /render, GET /jobs/:id, GET /animations, /output",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return err
		}

		project, err := engine.NewProject(cfg, log)
		if err != nil {
			return err
		}
		// отчеты в benchmark.log только для CLI
		project.BenchmarkLog = ""

		var uploader storage.Uploader
		supa, err := storage.NewSupabaseUploader(cfg.Supabase)
		switch {
		case errors.Is(err, storage.ErrNotConfigured):
			fmt.Printf("[!] Supabase не настроен, видео остаются в %s\n", cfg.OutputDir)
			uploader = storage.FileStore{Dir: cfg.OutputDir, BaseURL: "/output"}
		case err != nil:
			return err
		default:
			uploader = supa
		}

		var store jobs.Store = jobs.NewMemoryStore()
		if cfg.RedisURL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			rs, err := jobs.OpenRedis(ctx, cfg.RedisURL)
			cancel()
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer rs.Close()
			store = rs
		}

		srv := server.New(server.Deps{
			Config:   cfg,
			Log:      log,
			Renderer: project,
			Fetcher:  server.HTTPPropsFetcher{Client: &http.Client{Timeout: 60 * time.Second}},
			Uploader: uploader,
			Jobs:     store,
			Registry: project.Registry,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.Listen() }()

		fmt.Printf("[*] scenevideo %s: http://localhost:%d\n", cfg.BuildVersion, cfg.Port)
		fmt.Println("[*] POST /render - {\"inputUrl\": \"...\", \"async\": false, \"qr\": false}")

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		fmt.Println("[*] Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 3001, "Порт HTTP API (по умолчанию PORT или 3001)")
}
