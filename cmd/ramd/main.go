// Command ramd serves the Rule-ATT&CK Mapper: a six-stage LLM pipeline that
// maps SIEM detection rules onto MITRE ATT&CK techniques, exposed through a
// JSON API, a WebSocket progress stream, and a built-in web UI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ram-framework/ram"
	"github.com/ram-framework/ram/config"
	"github.com/ram-framework/ram/telemetry"
	"github.com/ram-framework/ram/web"
)

// rootCmd starts the server; serving is the root action.
var rootCmd = &cobra.Command{
	Use:   "ramd",
	Short: "ramd maps SIEM rules onto MITRE ATT&CK techniques",
	Long: `ramd serves the Rule-ATT&CK Mapper (RAM).

RAM chains six LLM pipeline stages (indicator extraction, context
retrieval, rule translation, data-source identification, technique
recommendation, relevance scoring) to map a SIEM detection rule onto
MITRE ATT&CK techniques. The server exposes the pipeline as a JSON API
and a WebSocket stream with per-stage progress, plus a built-in web UI.

Configuration comes from a YAML file (--config), overridden by flags and
RAM_* environment variables. Provider credentials come from
GEMINI_API_KEY or ANTHROPIC_API_KEY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "config file (YAML)")
	rootCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().String("log-format", "", "log format: text, json")

	viper.SetEnvPrefix("RAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, name := range []string{"config", "addr", "log-level", "log-format"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.Flags().Lookup(name)))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ramd:", err)
		os.Exit(1)
	}
}

// loadConfig merges the configuration sources: the YAML file when given,
// then flag and RAM_* environment overrides, then provider credentials from
// the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if addr := viper.GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// newLogger builds the process logger from the merged log settings.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.GetLevel()}

	var handler slog.Handler
	switch cfg.GetFormat() {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	snippetCache, err := ram.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("build snippet cache: %w", err)
	}

	opts := []ram.Option{
		ram.FromConfig(cfg),
		ram.WithLogger(logger),
		ram.WithCache(snippetCache),
	}

	if cfg.Telemetry.Enabled {
		tp := telemetry.NewTracerProvider(cfg.Telemetry.GetServiceName(), logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("tracer provider shutdown failed", "error", err)
			}
		}()

		tel, err := telemetry.New(telemetry.Config{TracerProvider: tp})
		if err != nil {
			return fmt.Errorf("build telemetry: %w", err)
		}
		opts = append(opts, ram.WithTelemetry(tel))
	}

	analyzer, err := ram.New(opts...)
	if err != nil {
		return err
	}
	defer ram.CloseWithLog(analyzer, logger, "analyzer")

	if !analyzer.HasCredential() {
		logger.Warn("no server-side API key configured; every request must supply its own",
			"provider", cfg.LLM.GetProvider())
	}

	server, err := web.New(web.Config{
		Addr:            cfg.Server.GetAddr(),
		Analyzer:        analyzer,
		Logger:          logger,
		ReadTimeout:     cfg.Server.GetReadTimeout(),
		WriteTimeout:    cfg.Server.GetWriteTimeout(),
		ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("starting ramd",
		"version", version,
		"addr", cfg.Server.GetAddr(),
		"provider", cfg.LLM.GetProvider(),
		"cache", cfg.Cache.GetBackend())

	return server.Serve(ctx)
}
