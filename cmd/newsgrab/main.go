package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/newsgrab"
	"github.com/pevans/newsgrab/articles"
	"github.com/pevans/newsgrab/config"
	"github.com/pevans/newsgrab/discovery"
	"github.com/pevans/newsgrab/extract"
	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/logger"
	"github.com/pevans/newsgrab/scraper"
	"github.com/urfave/cli/v2"
)

func main() {
	// SIGINT/SIGTERM cancel the run; the runner returns partial stats
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsgrab",
		Usage: "Discover, scrape and store articles from a news website",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (default: ~/.newsgrab/config.yaml)",
				EnvVars: []string{"NEWSGRAB_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "storage DSN, overriding the config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			scrapeCommand(),
			discoverCommand(),
			articleCommand(),
			listCommand(),
			categoriesCommand(),
			exportCommand(),
			clearCommand(),
			countCommand(),
			initCommand(),
			doctorCommand(),
		},
	}
}

// env holds the configuration and components shared by every command.
type env struct {
	cfg     *config.Config
	profile *scraper.Profile
	log     *logger.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := c.String("db"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	profile, err := cfg.BuildProfile()
	if err != nil {
		return nil, fmt.Errorf("failed to build site profile: %w", err)
	}

	return &env{
		cfg:     cfg,
		profile: profile,
		log:     logger.New(cfg.Log.Level, os.Stderr),
	}, nil
}

func (e *env) openStore(ctx context.Context) (articles.Store, error) {
	if e.cfg.Storage.Type == "" || e.cfg.Storage.Type == "sqlite" {
		if err := ensureParentDir(e.cfg.Storage.DSN); err != nil {
			return nil, err
		}
	}

	store, err := articles.Open(ctx, e.cfg.Storage.Type, e.cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}
	return store, nil
}

func (e *env) newFetcher() *fetch.Fetcher {
	return fetch.New(fetch.Options{
		UserAgent:    e.cfg.Fetch.UserAgent,
		Retry:        e.cfg.Fetch.Retry,
		MaxBodyBytes: e.cfg.Fetch.MaxBodyBytes,
		Logger:       e.log,
	})
}

func (e *env) newAssembler(f *fetch.Fetcher) *newsgrab.Assembler {
	return newsgrab.NewAssembler(f, e.profile, extract.NewLogSink(e.log), e.log)
}

func (e *env) newDiscoverer(f *fetch.Fetcher) (*discovery.Discoverer, error) {
	pacer := fetch.NewPacer(e.profile.Politeness.PageDelayMin, e.profile.Politeness.PageDelayMax)
	return discovery.NewDiscoverer(f, e.profile, pacer, e.log)
}

func (e *env) newRunner(source newsgrab.ArticleSource, store newsgrab.ArticleStore, workers int) *newsgrab.Runner {
	if workers < 1 {
		workers = e.cfg.Run.Workers
	}
	return newsgrab.NewRunner(source, store, newsgrab.RunnerOptions{
		Workers: workers,
		Pacer:   fetch.NewPacer(e.profile.Politeness.ArticleDelayMin, e.profile.Politeness.ArticleDelayMax),
		Logger:  e.log,
	})
}
