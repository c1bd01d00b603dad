package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"pkt.systems/clinpdf/internal/httpapi"
	"pkt.systems/clinpdf/pdf"
	"pkt.systems/version"
)

const shutdownGrace = 10 * time.Second

func init() {
	version.SetDefaultModule("pkt.systems/clinpdf")
}

type options struct {
	addr       string
	configPath string
	themeName  string
	maxBody    int64
	validate   bool
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	var opts options
	flags := pflag.NewFlagSet("clinpdf-server", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.addr, "addr", "a", ":8080", "Listen address")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML render config file")
	flags.StringVarP(&opts.themeName, "theme", "t", "", "Default theme name")
	flags.Int64Var(&opts.maxBody, "max-body", httpapi.DefaultMaxBody, "Request body limit in bytes")
	flags.BoolVar(&opts.validate, "validate", false, "Validate every generated PDF with pdfcpu")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details")
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: clinpdf-server [flags]\n\nFlags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	svc := httpapi.New(cfg, logger, httpapi.WithMaxBody(opts.maxBody))
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "version", version.Current())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		return 1
	}
	return 0
}

func loadConfig(opts options) (pdf.Config, error) {
	var cfg pdf.Config
	if opts.configPath != "" {
		loaded, err := pdf.LoadConfigFile(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.themeName != "" {
		if _, ok := pdf.ThemeByName(opts.themeName); !ok {
			return cfg, fmt.Errorf("%w: %s", pdf.ErrUnknownTheme, opts.themeName)
		}
	}
	return cfg.Merge(pdf.Config{Theme: opts.themeName, Validate: opts.validate}), nil
}
