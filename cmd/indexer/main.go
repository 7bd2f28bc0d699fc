// Command indexer is the single-writer process that drains the task queue:
// spec.md §4.5, §6 ("Indexer").
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/croissantine/internal/config"
	"github.com/standardbeagle/croissantine/internal/debug"
	"github.com/standardbeagle/croissantine/internal/indexer"
	"github.com/standardbeagle/croissantine/internal/queue"
	"github.com/standardbeagle/croissantine/internal/store"
)

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.LoadKDL(".")
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("database-path") {
		cfg.Database.Path = c.String("database-path")
	}
	if c.IsSet("workers") {
		cfg.Indexing.Workers = c.Int("workers")
	}
	if c.IsSet("backoff") {
		cfg.Indexing.BackoffInterval = c.Duration("backoff")
	}

	if err := config.ValidateConfig(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:  "indexer",
		Usage: "drain the croissantine task queue: expand path lists, index WARC archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database-path",
				Usage: "path to the croissantine database",
				Value: "croissantine.db",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "parallel record workers per archive (0 = GOMAXPROCS)",
			},
			&cli.DurationFlag{
				Name:  "backoff",
				Usage: "how long to sleep when the queue is empty",
			},
		},
		Action: runIndexer,
		Commands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "enqueue a WarcPathList task to bootstrap a fresh database",
				ArgsUsage: "<url>",
				Action:    runSeed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		debug.FatalAndExit("indexer: %v", err)
	}
}

func runIndexer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := store.OpenOrCreate(cfg.Database.Path, int(cfg.Database.MapSizeBytes))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ix := indexer.New(db, indexer.Config{
		Fetcher:         &indexer.HTTPFetcher{Client: &http.Client{Timeout: cfg.Indexing.FetchTimeout}},
		Workers:         cfg.Indexing.Workers,
		BackoffInterval: cfg.Indexing.BackoffInterval,
		Log:             debug.LogIndexer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- ix.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("indexer stopped: %w", err)
		}
		return nil
	case sig := <-sigChan:
		debug.LogIndexer("received signal %v, shutting down", sig)
		cancel()
		<-errChan
		return nil
	}
}

// runSeed implements the supplemented "indexer seed <url>" bootstrap mode
// from spec.md §4.5's original_source supplement — enqueues a WarcPathList
// task without needing the search server's HTTP admin route running.
func runSeed(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("usage: indexer seed <warc-paths-url>")
	}
	url := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := store.OpenOrCreate(cfg.Database.Path, int(cfg.Database.MapSizeBytes))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	priority, err := queue.SubmitPathList(db, url)
	if err != nil {
		return fmt.Errorf("seed queue: %w", err)
	}

	fmt.Printf("enqueued %s at priority %d\n", url, priority)
	return nil
}
