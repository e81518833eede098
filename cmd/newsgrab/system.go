package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pevans/newsgrab/articles"
	"github.com/pevans/newsgrab/config"
	"github.com/pevans/newsgrab/discovery"
	"github.com/pevans/newsgrab/fetch"
	"github.com/urfave/cli/v2"
)

func configPath(c *cli.Context) (string, error) {
	if path := c.String("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default config file and create the article store",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config file"},
		},
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	fmt.Println("Initializing newsgrab...")
	fmt.Println()

	path, err := configPath(c)
	if err != nil {
		return err
	}

	written, err := config.WriteDefault(path, c.Bool("force"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ Failed to create config file: %v\n", err)
		return cli.Exit("", 1)
	}
	if written {
		fmt.Printf("  ✓ Config file: %s\n", path)
	} else {
		fmt.Printf("  Config file: %s (already exists)\n", path)
	}

	// Load after writing so the store location honours the new file
	e, err := loadEnv(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return cli.Exit("", 1)
	}

	store, err := e.openStore(c.Context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return cli.Exit("", 1)
	}
	store.Close()
	fmt.Printf("  ✓ Article store: %s (%s)\n", e.cfg.Storage.DSN, e.cfg.Storage.Type)

	fmt.Println()
	fmt.Println("✓ Initialized")
	fmt.Println()
	fmt.Println("You can now:")
	fmt.Println("  - Edit the site section of the config file")
	fmt.Println("  - Check the setup with 'newsgrab doctor'")
	fmt.Println("  - Run a scrape with 'newsgrab scrape'")
	return nil
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check configuration, storage and site reachability",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "show detailed diagnostic information"},
			&cli.BoolFlag{Name: "offline", Usage: "skip the network checks"},
		},
		Action: doctorAction,
	}
}

// doctorReport tracks the outcome of the doctor checks.
type doctorReport struct {
	errors   bool
	warnings bool
}

func (r *doctorReport) ok(format string, args ...any) {
	fmt.Printf("  ✓ "+format+"\n", args...)
}

func (r *doctorReport) warn(format string, args ...any) {
	fmt.Printf("  ⚠ Warning: "+format+"\n", args...)
	r.warnings = true
}

func (r *doctorReport) fail(format string, args ...any) {
	fmt.Printf("  ✗ "+format+"\n", args...)
	r.errors = true
}

func doctorAction(c *cli.Context) error {
	verbose := c.Bool("verbose")
	report := &doctorReport{}

	fmt.Println("Checking newsgrab setup...")
	fmt.Println()

	fmt.Println("Configuration:")
	path, err := configPath(c)
	if err == nil {
		fmt.Printf("  Path: %s\n", path)
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			report.warn("config file does not exist, using defaults")
			fmt.Println("    Run 'newsgrab init' to create it")
		}
	}

	e, err := loadEnv(c)
	if err != nil {
		report.fail("%v", err)
		fmt.Println()
		fmt.Println("✗ Configuration has errors")
		return cli.Exit("", 1)
	}
	report.ok("Configuration is valid")
	report.ok("Site profile: %s", e.profile.BaseURL)
	if verbose {
		fmt.Printf("  Listing URLs: %v\n", e.profile.List.ListingURLs)
		fmt.Printf("  Max pages: %d, workers: %d, max images: %d\n", e.profile.List.MaxPages, e.cfg.Run.Workers, e.profile.MaxImages)
		fmt.Printf("  Article delay: %s-%s\n", e.profile.Politeness.ArticleDelayMin, e.profile.Politeness.ArticleDelayMax)
	}
	fmt.Println()

	fmt.Println("Article Store:")
	checkStore(c.Context, e, report, verbose)
	fmt.Println()

	if !c.Bool("offline") {
		fmt.Println("Site:")
		checkSite(c.Context, e, report)
		fmt.Println()
	}

	switch {
	case report.errors:
		fmt.Println("✗ Setup has errors")
		return cli.Exit("", 1)
	case report.warnings:
		fmt.Println("✓ Setup is functional but has warnings")
		if !verbose {
			fmt.Println("  Run 'newsgrab doctor --verbose' for more details")
		}
	default:
		fmt.Println("✓ All checks passed")
	}
	return nil
}

func checkStore(ctx context.Context, e *env, report *doctorReport, verbose bool) {
	fmt.Printf("  Type: %s\n", e.cfg.Storage.Type)

	if e.cfg.Storage.Type == "sqlite" {
		fmt.Printf("  Path: %s\n", e.cfg.Storage.DSN)

		stat, err := os.Stat(e.cfg.Storage.DSN)
		switch {
		case os.IsNotExist(err):
			report.fail("Database file does not exist")
			fmt.Println("    Run 'newsgrab init' to create it")
			return
		case err != nil:
			report.fail("Cannot access database file: %v", err)
			return
		}

		perm := stat.Mode().Perm()
		if verbose {
			fmt.Printf("  Permissions: %o\n", perm)
		}
		if perm&0o077 != 0 {
			report.warn("database file has overly permissive permissions")
			fmt.Printf("    Current: %o, expected: 600\n", perm)
			fmt.Println("    Consider: chmod 600 " + e.cfg.Storage.DSN)
		}
	}

	store, err := articles.Open(ctx, e.cfg.Storage.Type, e.cfg.Storage.DSN)
	if err != nil {
		report.fail("Failed to open store: %v", err)
		return
	}
	defer store.Close()
	report.ok("Store is accessible")

	count, err := store.Count(ctx)
	if err != nil {
		report.warn("could not count articles: %v", err)
		return
	}
	fmt.Printf("  Articles stored: %d\n", count)
}

func checkSite(ctx context.Context, e *env, report *doctorReport) {
	f := fetch.New(fetch.Options{
		UserAgent: e.cfg.Fetch.UserAgent,
		Retry:     fetch.Retry{MaxAttempts: 1, Timeout: 10 * time.Second},
		Logger:    e.log,
	})

	listings := e.profile.List.ListingURLs
	if len(listings) == 0 {
		listings = []string{e.profile.BaseURL}
	}

	for _, listing := range listings {
		resp, err := f.Get(ctx, listing)
		if err != nil {
			report.fail("Listing %s: %v", listing, err)
			continue
		}
		report.ok("Listing %s (HTTP %d, %d bytes)", listing, resp.StatusCode, len(resp.Body))

		if !e.profile.List.RespectRobots {
			continue
		}
		allowed, err := discovery.RobotsAllowed(ctx, f, listing)
		switch {
		case err != nil:
			report.warn("robots.txt unavailable, all paths allowed: %v", err)
		case !allowed:
			report.fail("robots.txt disallows %s for %q", listing, discovery.RobotsAgent)
		}
	}

	if feedURL := e.profile.List.FeedURL; feedURL != "" {
		resp, err := f.Get(ctx, feedURL)
		if err != nil {
			report.fail("Feed %s: %v", feedURL, err)
			return
		}
		links, err := discovery.ParseFeed(resp.Body)
		if err != nil {
			report.fail("Feed %s: %v", feedURL, err)
			return
		}
		report.ok("Feed %s (%d items)", feedURL, len(links))
	}
}
