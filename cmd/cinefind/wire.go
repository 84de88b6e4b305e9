package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/cinefind/internal/config"
	"github.com/abelbrown/cinefind/internal/ddb"
	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/store"
	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
)

// loadConfig builds the configuration: defaults, then the TOML file, then
// the environment, then flags given on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("debounce") {
		cfg.Search.Debounce = config.Duration(c.Duration("debounce"))
	}
	if c.IsSet("limit") {
		cfg.Trending.Limit = c.Int("limit")
	}
	if c.IsSet("backend") {
		cfg.Trending.Backend = strings.ToLower(strings.TrimSpace(c.String("backend")))
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

// runtime holds everything a command needs, opened once from the config.
type runtime struct {
	cfg      *config.Config
	events   *eventlog.Logger
	ring     *eventlog.RingBuffer
	client   *tmdb.Client
	reporter *trending.Reporter

	awsCfg    *aws.Config
	eventFile *os.File
	closers   []func() error
}

// openRuntime loads the config and opens logging, the event log, the
// trending store and, when needTMDB is set, the TMDB client. interactive
// sends the human log to a file instead of stderr.
func openRuntime(c *cli.Context, interactive, needTMDB bool) (*runtime, error) {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if interactive {
		if err := logging.Init(cfg.DataDir, level); err != nil {
			return nil, err
		}
	} else {
		logging.InitWriter(c.App.ErrWriter, level)
	}

	rt := &runtime{cfg: cfg}
	if err := rt.openEvents(); err != nil {
		rt.Close()
		return nil, err
	}

	if needTMDB {
		if cfg.NeedsSecret() {
			awsCfg, err := rt.awsConfig(ctx)
			if err != nil {
				rt.Close()
				return nil, err
			}
			logging.Info("resolving TMDB token from Secrets Manager", "secret_arn", cfg.TMDB.TokenSecretARN)
			if err := cfg.ResolveToken(ctx, secretsmanager.NewFromConfig(awsCfg)); err != nil {
				rt.Close()
				return nil, err
			}
		}
		err = cfg.Validate()
	} else {
		err = cfg.ValidateTrending()
	}
	if err != nil {
		rt.Close()
		return nil, err
	}

	counts, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.reporter = trending.NewReporter(counts, trending.Options{
		Limit:        cfg.Trending.Limit,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Events:       rt.events,
	})

	if needTMDB {
		rt.client = tmdb.NewClient(cfg.TMDB.Token, tmdb.Options{
			BaseURL:           cfg.TMDB.BaseURL,
			Timeout:           time.Duration(cfg.TMDB.Timeout),
			RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		})
	}

	rt.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindStartup,
		Comp:  "main",
		Msg:   commandName(c),
		Extra: map[string]any{
			"backend":  cfg.Trending.Backend,
			"debounce": time.Duration(cfg.Search.Debounce).String(),
			"limit":    cfg.Trending.Limit,
		},
	})
	logging.Info("cinefind started", "backend", cfg.Trending.Backend, "data_dir", cfg.DataDir, "session", rt.events.SessionID())
	return rt, nil
}

func commandName(c *cli.Context) string {
	if c.Command == nil || c.Command.Name == "" || c.Command.Name == c.App.Name {
		return "tui"
	}
	return c.Command.Name
}

func (rt *runtime) openEvents() error {
	f, err := os.OpenFile(rt.cfg.EventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	rt.eventFile = f
	rt.events = eventlog.New(f)
	rt.ring = eventlog.NewRingBuffer(eventlog.DefaultRingSize)
	rt.events.SetRingBuffer(rt.ring)
	return nil
}

func (rt *runtime) openStore(ctx context.Context) (trending.Store, error) {
	switch rt.cfg.Trending.Backend {
	case config.BackendDynamoDB:
		awsCfg, err := rt.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		logging.Info("using DynamoDB trending store", "table", rt.cfg.Trending.Table, "index", rt.cfg.Trending.Index)
		return ddb.NewCounts(dynamodb.NewFromConfig(awsCfg), rt.cfg.Trending.Table, rt.cfg.Trending.Index), nil
	default:
		st, err := store.Open(rt.cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.closers = append(rt.closers, st.Close)
		return st, nil
	}
}

// awsConfig loads the shared AWS config once.
func (rt *runtime) awsConfig(ctx context.Context) (aws.Config, error) {
	if rt.awsCfg != nil {
		return *rt.awsCfg, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if rt.cfg.Trending.Region != "" {
		opts = append(opts, awsconfig.WithRegion(rt.cfg.Trending.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	rt.awsCfg = &awsCfg
	return awsCfg, nil
}

// Close flushes the event log and releases the store. Safe on a partially
// opened runtime.
func (rt *runtime) Close() {
	if rt.events != nil {
		rt.events.Emit(eventlog.Event{
			Level: eventlog.LevelInfo,
			Kind:  eventlog.KindShutdown,
			Comp:  "main",
			Extra: map[string]any{"dropped": rt.events.Dropped()},
		})
		rt.events.Close()
	}
	if rt.eventFile != nil {
		rt.eventFile.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			logging.Warn("close failed", "error", err)
		}
	}
	logging.Close()
}
