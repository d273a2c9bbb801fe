// Command learnsnap captures readable web pages, stores them, translates them and exports
// them as Markdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"learnsnap/internal/config"
	"learnsnap/internal/logger"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	log     *slog.Logger
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "learnsnap",
	Short: "Capture, translate and export readable web pages",
	Long: `learnsnap keeps readable snapshots of web pages.

Example usage:
  learnsnap serve                              # Run the background with the HTTP API
  learnsnap capture https://go.dev/blog/pipelines
  learnsnap list --category Go
  learnsnap translate --to fr "Hello world"
  learnsnap export <id>                         # Write an Obsidian note`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./learnsnap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(serveCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log = logger.New(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(log)
	log.Debug("configuration loaded", "db", cfg.Data.DBPath, "capture_mode", cfg.Capture.Mode, "cache", cfg.Cache.Backend)
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background and the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}
	srv := app.Server()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Addr) }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Error("http shutdown", "err", serr)
	}
	if cerr := app.Close(shutdownCtx); cerr != nil {
		log.Error("close app", "err", cerr)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
