// Command search is the HTTP search frontend: spec.md §6 ("Search
// server").
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/croissantine/internal/config"
	"github.com/standardbeagle/croissantine/internal/debug"
	"github.com/standardbeagle/croissantine/internal/server"
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
	if c.IsSet("listen") {
		cfg.Server.ListenAddr = c.String("listen")
	}
	if c.IsSet("admin-user") {
		cfg.Server.AdminUser = c.String("admin-user")
	}
	if c.IsSet("admin-password") {
		cfg.Server.AdminPassword = c.String("admin-password")
	}

	if err := config.ValidateConfig(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:  "search",
		Usage: "serve the croissantine search frontend over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address to bind the HTTP server",
				Value: "0.0.0.0:3000",
			},
			&cli.StringFlag{
				Name:  "database-path",
				Usage: "path to the croissantine database",
				Value: "croissantine.db",
			},
			&cli.StringFlag{
				Name:  "admin-user",
				Usage: "HTTP Basic auth user for admin routes",
			},
			&cli.StringFlag{
				Name:  "admin-password",
				Usage: "HTTP Basic auth password for admin routes",
			},
		},
		Action: runSearch,
	}

	if err := app.Run(os.Args); err != nil {
		debug.FatalAndExit("search: %v", err)
	}
}

func runSearch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := store.OpenOrCreate(cfg.Database.Path, int(cfg.Database.MapSizeBytes))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, cfg.Server.ResultLimit, cfg.Server.AdminUser, cfg.Server.AdminPassword)
	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		debug.LogSearch("listening on %s", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("search server stopped: %w", err)
		}
		return nil
	case sig := <-sigChan:
		debug.LogSearch("received signal %v, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		<-errChan
		return nil
	}
}
