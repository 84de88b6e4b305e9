package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/cinefind/internal/coord"
	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/search"
	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
	"github.com/abelbrown/cinefind/internal/ui"
)

func runTUI(c *cli.Context) error {
	rt, err := openRuntime(c, true, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	app := ui.NewAppWithConfig(ui.AppConfig{
		Search: search.Options{
			Fetch:    rt.client.Movies,
			Record:   rt.reporter.Record,
			Debounce: time.Duration(rt.cfg.Search.Debounce),
			Events:   rt.events,
		},
		ImageBaseURL: rt.cfg.TMDB.ImageBaseURL,
		Obs:          ui.ObsConfig{Events: rt.events, Ring: rt.ring},
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	coordinator := coord.NewCoordinator(rt.client.Movies, rt.reporter)
	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	_, runErr := program.Run()

	// Graceful shutdown
	cancel()
	coordinator.Wait()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		rt.events.Error(eventlog.KindError, "main", runErr)
		logging.Error("program exited with error", "error", runErr)
		return fmt.Errorf("error running program: %w", runErr)
	}
	return nil
}

func runSearch(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("search: a query is required")
	}

	rt, err := openRuntime(c, false, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	movies, err := rt.client.Search(c.Context, query)
	if err != nil {
		rt.events.Emit(eventlog.Event{
			Level: eventlog.LevelError,
			Kind:  eventlog.KindSearchError,
			Comp:  "cli",
			Query: query,
			Err:   err.Error(),
		})
		return err
	}
	rt.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindSearchComplete,
		Comp:  "cli",
		Query: query,
		Count: len(movies),
	})

	if !c.Bool("no-record") && len(movies) > 0 {
		// Record failures are logged by the reporter and never fail the search.
		_ = rt.reporter.Record(c.Context, query, movies[0])
	}

	return printJSON(c.App.Writer, struct {
		Query  string       `json:"query"`
		Movies []tmdb.Movie `json:"movies"`
	}{query, movies})
}

func runTrending(c *cli.Context) error {
	rt, err := openRuntime(c, false, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if q := c.String("query"); q != "" {
		entry, ok, err := rt.reporter.Get(c.Context, q)
		if err != nil {
			return fmt.Errorf("trending: %w", err)
		}
		if !ok {
			return fmt.Errorf("trending: %q has not been searched", trending.NormalizeQuery(q))
		}
		return printJSON(c.App.Writer, entry)
	}

	entries, err := rt.reporter.Load(c.Context)
	if err != nil {
		return fmt.Errorf("trending: %w", err)
	}
	return printJSON(c.App.Writer, entries)
}

func runSnapshot(c *cli.Context) error {
	rt, err := openRuntime(c, false, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	snap, err := coord.NewCoordinator(rt.client.Movies, rt.reporter).Snapshot(c.Context, query)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, snap)
}

func runConfigInit(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := c.String("config")
	if err := cfg.Save(path); err != nil {
		return err
	}
	logging.Info("config written", "path", path)
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func runEvents(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logPath := cfg.EventLogPath()
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run the TUI first): %w", logPath, err)
	}
	defer f.Close()

	filter := eventlog.Filter{
		KindPrefix: c.String("kind"),
		MinLevel:   eventlog.Level(strings.ToLower(c.String("level"))),
		Comp:       c.String("comp"),
	}
	events, skipped, err := eventlog.ReadTail(f, c.Int("tail"), filter)
	if err != nil {
		return fmt.Errorf("read event log: %w", err)
	}

	w := c.App.Writer
	for _, ev := range events {
		if c.Bool("json") {
			line, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(line))
			continue
		}
		fmt.Fprintln(w, formatEvent(ev))
	}
	if skipped > 0 {
		fmt.Fprintf(c.App.ErrWriter, "skipped %d undecodable lines\n", skipped)
	}
	return nil
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(ev eventlog.Event) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-22s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Seq > 0 {
		parts = append(parts, fmt.Sprintf("#%d", ev.Seq))
	}
	if ev.Msg != "" {
		parts = append(parts, ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.1fms)", ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
