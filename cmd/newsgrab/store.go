package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pevans/newsgrab/articles"
	"github.com/urfave/cli/v2"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored articles, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "case-insensitive category substring"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum articles to show"},
			&cli.IntFlag{Name: "offset", Usage: "articles to skip"},
			&cli.BoolFlag{Name: "json", Usage: "print articles as JSON"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(c.Context, articles.Filter{
				Category: c.String("category"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return fmt.Errorf("failed to list articles: %w", err)
			}

			if c.Bool("json") {
				if list == nil {
					list = []articles.Article{}
				}
				return printJSON(list)
			}

			if len(list) == 0 {
				fmt.Println("No articles stored.")
				return nil
			}

			rows := [][]string{{"DATE", "CATEGORY", "TITLE", "AUTHOR", "WORDS"}}
			for _, a := range list {
				rows = append(rows, []string{
					a.PublicationDate,
					a.Category,
					a.Title,
					a.Author,
					fmt.Sprintf("%d", a.WordCount),
				})
			}
			printTable(os.Stdout, rows, []int{10, 24, 70, 24, 6})
			return nil
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the distinct categories of stored articles",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.Categories(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println("No categories.")
				return nil
			}
			for _, category := range categories {
				fmt.Println(category)
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored articles as a JSON array or JSON lines",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "jsonl", Usage: "write one article per line"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: stdout)"},
			&cli.StringFlag{Name: "category", Usage: "case-insensitive category substring"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			var w io.Writer = os.Stdout
			if out := c.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			format := articles.FormatJSON
			if c.Bool("jsonl") {
				format = articles.FormatJSONL
			}

			n, err := articles.Export(c.Context, store, w, format, articles.Filter{Category: c.String("category")})
			if err != nil {
				return fmt.Errorf("failed to export articles: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Exported %d articles\n", n)
			return nil
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every stored article",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			before, err := store.Count(c.Context)
			if err != nil {
				return fmt.Errorf("failed to count articles: %w", err)
			}
			fmt.Printf("Articles before: %d\n", before)
			if before == 0 {
				return nil
			}

			if !c.Bool("yes") && !confirm(os.Stdin, fmt.Sprintf("Delete %d articles? [y/N] ", before)) {
				fmt.Println("Aborted.")
				return nil
			}

			deleted, err := store.Clear(c.Context)
			if err != nil {
				return fmt.Errorf("failed to clear articles: %w", err)
			}

			after, err := store.Count(c.Context)
			if err != nil {
				return fmt.Errorf("failed to count articles: %w", err)
			}

			fmt.Printf("✓ Deleted %d articles\n", deleted)
			fmt.Printf("Articles after: %d\n", after)
			return nil
		},
	}
}

func countCommand() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Print the number of stored articles",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count(c.Context)
			if err != nil {
				return fmt.Errorf("failed to count articles: %w", err)
			}
			fmt.Println(n)
			return nil
		},
	}
}

func confirm(r io.Reader, prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// ensureParentDir creates the directory holding a SQLite database file.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
