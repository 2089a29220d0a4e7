// Package cmd — serve command.
// Serves a live HTML preview of a local wiki directory.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/gaurav-prasanna/wikipipe/server"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <wiki_dir>",
	Short: "Serve a live HTML preview of a wiki",
	Long: `Serve converts the wiki on every request to / so edits show up on reload.
Remote images are downloaded once and kept for the lifetime of the server;
images that fail to download are retried on the next reload.

Examples:
  wikipipe serve ./MyProject.wiki
  wikipipe serve ./MyProject.wiki --addr 127.0.0.1:9000 --root Index.md`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagRoot, "root", "", "Root page of the wiki (default Home.md)")
	serveCmd.Flags().StringVar(&flagTitle, "title", "", "Document title")
	serveCmd.Flags().BoolVar(&flagLowercaseLinks, "lowercase_links", false, "Lowercase page names when resolving links")
	serveCmd.Flags().StringVar(&flagLogLevel, "log_level", "", "Log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	contentRoot := args[0]
	if fi, err := os.Stat(contentRoot); err != nil || !fi.IsDir() {
		return fmt.Errorf("wiki directory %s not found", contentRoot)
	}

	cfg, err := loadConfig(func(c *config.Config) {
		applyFlags(cmd, c)
		if cmd.Flags().Changed("addr") {
			c.ServeAddr = flagAddr
		}
		c.Format = config.FormatHTML
	})
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	assetDir, err := os.MkdirTemp("", "wikipipe-assets-*")
	if err != nil {
		return fmt.Errorf("creating asset directory: %w", err)
	}
	defer os.RemoveAll(assetDir)

	httpServer := &http.Server{
		Addr:         cfg.ServeAddr,
		Handler:      server.NewServer(cfg, contentRoot, assetDir, nil, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("serving wiki", "dir", contentRoot, "addr", cfg.ServeAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
