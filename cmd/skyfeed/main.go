package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/config"
	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/feed"
	"github.com/umputun/skyfeed/pkg/repository"
	"github.com/umputun/skyfeed/pkg/scheduler"
	"github.com/umputun/skyfeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Once   bool   `long:"once" env:"ONCE" description:"run the pipeline once and exit, for cron jobs"`

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
	lgr.Printf("[INFO] starting skyfeed version %s", revision)

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

// run loads the config, wires the pipeline, storage, scheduler and http server,
// and blocks until ctx is done. With --once it makes a single pipeline run.
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err = cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// config is loaded after the initial setup, the password becomes known only now
	setupLog(opts.Debug, cfg.Bluesky.AppPassword)

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		KeepSnapshots:   cfg.Schedule.KeepSnapshots,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			lgr.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	client := bluesky.NewClient(bluesky.Config{
		Service:   cfg.Bluesky.Service,
		Timeout:   cfg.Bluesky.Timeout,
		UserAgent: "skyfeed/" + revision,
	})
	pipeline := feed.NewPipeline(client, feed.Config{
		Credential:  domain.Credential{Handle: cfg.Bluesky.Handle, AppPassword: cfg.Bluesky.AppPassword},
		FetchLimit:  cfg.Bluesky.FetchLimit,
		MaxPosts:    cfg.Feed.MaxPosts,
		DisplayName: cfg.Feed.DisplayName,
	})
	sched := scheduler.NewScheduler(scheduler.Params{
		Pipeline:       pipeline,
		Snapshots:      repos.Snapshot,
		Settings:       repos.Setting,
		UpdateInterval: cfg.Schedule.UpdateInterval,
		OutputFile:     cfg.Feed.OutputFile,
	})

	if opts.Once {
		snap, err := sched.RefreshNow(ctx)
		if err != nil {
			return fmt.Errorf("feed update failed: %w", err)
		}
		lgr.Printf("[INFO] feed updated, snapshot %d with %d posts", snap.ID, snap.Document.TotalPosts)
		return nil
	}

	srv := server.New(server.Config{
		Listen:          cfg.Server.Listen,
		Timeout:         cfg.Server.Timeout,
		BaseURL:         cfg.Server.BaseURL,
		CacheMaxAge:     cfg.Server.CacheMaxAge,
		LiveMinInterval: cfg.Server.LiveMinInterval,
	}, repos.Snapshot, sched, revision, opts.Debug)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start(gctx)
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
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
