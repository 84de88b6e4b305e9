// Command cinefind is a terminal movie finder backed by TMDB.
//
// Usage:
//
//	cinefind                    Interactive search (TUI)
//	cinefind search <query>     One-shot search, printed as JSON
//	cinefind trending           Most searched queries, printed as JSON
//	cinefind trending -q <q>    Count for a single query
//	cinefind snapshot [query]   Trending and results together
//	cinefind events             JSONL event log viewer
//	cinefind config init        Write the effective config file
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/cinefind/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinefind: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cinefind",
		Usage: "Find movies you'll enjoy without the hassle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML config file",
				Value:   config.DefaultPath(),
				EnvVars: []string{"CINEFIND_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory for the database, logs and event log",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before typed text is searched (0 = immediate)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of trending entries to show",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Trending store: sqlite or dynamodb",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search once and print the results as JSON",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-record",
						Usage: "Do not count this search towards trending",
					},
				},
				Action: runSearch,
			},
			{
				Name:  "trending",
				Usage: "Print the most searched queries as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Print the count for one query instead of the top list",
					},
				},
				Action: runTrending,
			},
			{
				Name:      "snapshot",
				Usage:     "Load trending and results concurrently and print both",
				ArgsUsage: "[query]",
				Action:    runSnapshot,
			},
			{
				Name:  "events",
				Usage: "Show the tail of the JSONL event log",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "tail", Value: 50, Usage: "Number of recent events to show"},
					&cli.StringFlag{Name: "kind", Usage: "Filter by event kind prefix (e.g. 'search')"},
					&cli.StringFlag{Name: "level", Usage: "Minimum level: debug, info, warn, error"},
					&cli.StringFlag{Name: "comp", Usage: "Filter by component name"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON lines"},
				},
				Action: runEvents,
			},
			{
				Name:  "config",
				Usage: "Manage the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the effective configuration (without the token)",
						Action: runConfigInit,
					},
				},
			},
		},
	}
}
