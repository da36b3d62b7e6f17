package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/skyfeed/pkg/config"
	"github.com/umputun/skyfeed/pkg/repository"
	"github.com/umputun/skyfeed/pkg/widget"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	NoCache bool   `long:"no-cache" env:"NO_CACHE" description:"don't keep the last good document"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

// logOut is where the log goes, replaced in tests
var logOut io.Writer = os.Stdout

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	color.NoColor = color.NoColor || opts.NoColor
	setupLog(opts.Debug)
	lgr.Printf("[INFO] starting skyfeed widget version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Printf("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	lgr.Printf("[INFO] shutdown complete")
}

// run starts the consumer and the http server rendering it, blocks until ctx is done
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// a shared config file may carry the app password, keep it out of the log anyway
	setupLog(opts.Debug, cfg.Bluesky.AppPassword)

	cache, closeCache, err := makeCache(ctx, cfg, opts.NoCache)
	if err != nil {
		return err
	}
	defer closeCache()

	consumer := widget.NewConsumer(widget.Config{
		SourceURL:       cfg.Widget.SourceURL,
		Attempts:        cfg.Widget.Attempts,
		InitialDelay:    cfg.Widget.InitialDelay,
		MaxDelay:        cfg.Widget.MaxDelay,
		AttemptTimeout:  cfg.Widget.AttemptTimeout,
		RefreshInterval: cfg.Widget.RefreshInterval,
		ProfileURL:      profileURL(cfg),
	}, cache)

	httpServer := &http.Server{
		Addr:              cfg.Widget.Listen,
		Handler:           newRouter(consumer, opts.Debug),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("widget consumer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] widget server shutdown error: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		lgr.Printf("[INFO] starting widget server on %s, source %s", cfg.Widget.Listen, cfg.Widget.SourceURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// makeCache picks the cache file if set, the database otherwise
func makeCache(ctx context.Context, cfg *config.Config, disabled bool) (widget.Cache, func(), error) {
	switch {
	case disabled:
		lgr.Printf("[INFO] feed cache disabled")
		return widget.NopCache{}, func() {}, nil
	case cfg.Widget.CacheFile != "":
		lgr.Printf("[INFO] feed cache in %s", cfg.Widget.CacheFile)
		return widget.NewFileCache(cfg.Widget.CacheFile), func() {}, nil
	}

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	lgr.Printf("[INFO] feed cache in database")
	closeFn := func() {
		if err := repos.Close(); err != nil {
			lgr.Printf("[WARN] failed to close database: %v", err)
		}
	}
	return widget.NewStoreCache(repos.Setting, repository.KeyWidgetCache), closeFn, nil
}

// profileURL is the configured profile link or the one of the configured handle
func profileURL(cfg *config.Config) string {
	if cfg.Widget.ProfileURL != "" {
		return cfg.Widget.ProfileURL
	}
	if cfg.Bluesky.Handle != "" {
		return "https://bsky.app/profile/" + cfg.Bluesky.Handle
	}
	return ""
}

// newRouter makes the widget routes: full page, fragment for htmx and manual retry
func newRouter(consumer *widget.Consumer, debug bool) http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.AppInfo("skyfeed-widget", "umputun", revision))
	router.Use(rest.Ping)
	if debug {
		router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.Throttle(100))
	router.Use(rest.SizeLimit(1024))

	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := consumer.RenderPage(w); err != nil {
			lgr.Printf("[ERROR] %v", err)
		}
	})
	router.HandleFunc("GET /widget", func(w http.ResponseWriter, _ *http.Request) {
		renderFragment(w, consumer)
	})
	router.HandleFunc("POST /widget/retry", func(w http.ResponseWriter, _ *http.Request) {
		consumer.Retry()
		renderFragment(w, consumer)
	})
	return router
}

func renderFragment(w http.ResponseWriter, consumer *widget.Consumer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := consumer.Render(w); err != nil {
		lgr.Printf("[ERROR] %v", err)
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(logOut), lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Out(logOut), lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces,
			lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
