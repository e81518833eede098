package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pevans/newsgrab"
	"github.com/pevans/newsgrab/discovery"
	"github.com/urfave/cli/v2"
)

func scrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Discover article URLs and store every new article",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Usage: "articles processed concurrently (default from config)"},
			&cli.IntFlag{Name: "max-articles", Usage: "stop discovery after this many URLs"},
			&cli.IntFlag{Name: "max-pages", Usage: "listing pages to walk per listing URL"},
			&cli.StringSliceFlag{Name: "url", Usage: "scrape these URLs instead of running discovery"},
			&cli.BoolFlag{Name: "json", Usage: "print the run result as JSON"},
		},
		Action: scrapeAction,
	}
}

func scrapeAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	if n := c.Int("max-articles"); n > 0 {
		e.profile.List.MaxArticles = n
	}
	if n := c.Int("max-pages"); n > 0 {
		e.profile.List.MaxPages = n
	}

	store, err := e.openStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher := e.newFetcher()
	runner := e.newRunner(e.newAssembler(fetcher), store, c.Int("workers"))

	var result newsgrab.Result
	if urls := c.StringSlice("url"); len(urls) > 0 {
		stats := runner.Run(c.Context, urls)
		result = newsgrab.Result{Candidates: len(urls), Stats: &stats}
	} else {
		discoverer, err := e.newDiscoverer(fetcher)
		if err != nil {
			return err
		}
		result = newsgrab.NewPipeline(discoverer, runner, e.log).Run(c.Context)
	}

	if c.Bool("json") {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if result.Error != "" {
		return cli.Exit("", 1)
	}
	return nil
}

func printResult(result newsgrab.Result) {
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}

	stats := result.Stats
	fmt.Printf("Candidates:     %d", result.Candidates)
	if result.LowConfidence > 0 {
		fmt.Printf(" (%d low confidence)", result.LowConfidence)
	}
	fmt.Println()
	fmt.Printf("Total:          %d\n", stats.Total)
	fmt.Printf("Success:        %d\n", stats.Success)
	fmt.Printf("Already stored: %d\n", stats.AlreadyExists)
	fmt.Printf("Failed:         %d\n", stats.Failed)
	fmt.Printf("Duration:       %s\n", stats.Duration().Round(time.Millisecond))
	if stats.Canceled {
		fmt.Println("Run interrupted; counts are partial.")
	}
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List candidate article URLs without scraping them",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-articles", Usage: "stop after this many URLs"},
			&cli.IntFlag{Name: "max-pages", Usage: "listing pages to walk per listing URL"},
			&cli.BoolFlag{Name: "json", Usage: "print candidates as JSON"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			if n := c.Int("max-articles"); n > 0 {
				e.profile.List.MaxArticles = n
			}
			if n := c.Int("max-pages"); n > 0 {
				e.profile.List.MaxPages = n
			}

			discoverer, err := e.newDiscoverer(e.newFetcher())
			if err != nil {
				return err
			}

			set, err := discoverer.Discover(c.Context)
			if err != nil && !errors.Is(err, discovery.ErrNoListingPages) {
				return fmt.Errorf("failed to discover articles: %w", err)
			}
			if set.Len() == 0 {
				if c.Bool("json") {
					_ = printJSON(newsgrab.Result{Error: newsgrab.ErrNoURLs})
				} else {
					fmt.Println(newsgrab.ErrNoURLs)
				}
				return cli.Exit("", 1)
			}

			if c.Bool("json") {
				return printJSON(set.Candidates())
			}

			rows := [][]string{{"CONFIDENCE", "URL", "SOURCE"}}
			for _, cand := range set.Candidates() {
				rows = append(rows, []string{string(cand.Confidence), cand.URL, cand.Source})
			}
			printTable(os.Stdout, rows, []int{10, 90, 50})
			fmt.Printf("\nTotal: %d candidates\n", set.Len())
			return nil
		},
	}
}

func articleCommand() *cli.Command {
	return &cli.Command{
		Name:      "article",
		Usage:     "Scrape one article in detail and print it as JSON",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Usage: "store the article"},
			&cli.IntFlag{Name: "max-images", Usage: "image cap, 0 for the profile default, -1 for all"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("Usage: newsgrab article <url>", 1)
			}

			e, err := loadEnv(c)
			if err != nil {
				return err
			}

			assembler := e.newAssembler(e.newFetcher())
			if n := c.Int("max-images"); n != 0 {
				assembler.WithMaxImages(n)
			}

			article, err := assembler.Assemble(c.Context, c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to scrape article: %w", err)
			}

			if err := printJSON(article); err != nil {
				return err
			}

			if !c.Bool("save") {
				return nil
			}

			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			inserted, err := store.InsertIfAbsent(c.Context, article)
			if err != nil {
				return fmt.Errorf("failed to save article: %w", err)
			}
			if inserted {
				fmt.Fprintln(os.Stderr, "✓ Article saved")
			} else {
				fmt.Fprintln(os.Stderr, "Article already stored")
			}
			return nil
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
