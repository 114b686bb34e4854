package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cwygoda/modscope/internal/adapter/cache"
	"github.com/cwygoda/modscope/internal/adapter/fetch"
	httpAdapter "github.com/cwygoda/modscope/internal/adapter/http"
	"github.com/cwygoda/modscope/internal/adapter/provider"
	"github.com/cwygoda/modscope/internal/adapter/sqlite"
	"github.com/cwygoda/modscope/internal/config"
	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
	"github.com/cwygoda/modscope/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "modscope",
		Usage: "List the Minecraft versions and loaders a mod supports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "lookup",
				Aliases:   []string{"l"},
				Usage:     "Look up one or more CurseForge or Modrinth mod URLs",
				ArgsUsage: "[url...]",
				Action:    lookupAction,
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
				},
				Action: serveAction,
			},
			{
				Name:      "history",
				Usage:     "Show recent lookups, or one lookup by ID",
				ArgsUsage: "[id]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of lookups to list"},
				},
				Action: historyAction,
			},
			{
				Name:  "cache",
				Usage: "Manage the page cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Delete every cached page",
						Action: cacheClearAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// app holds the wired components for one command invocation.
type app struct {
	cfg     *config.Config
	log     *logx.Logger
	store   *cache.Store
	repo    *sqlite.Repository
	history *domain.LookupService
	pool    *worker.Pool
}

func setup(c *cli.Context) (*app, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	lg := logx.Default(cfg.Debug)

	a := &app{cfg: cfg, log: lg, store: cache.New(cfg.CacheDir, cfg.CacheTTL)}

	if repo, err := sqlite.New(cfg.DBPath); err != nil {
		lg.Printf("warning: history disabled: %v", err)
	} else {
		a.repo = repo
		a.history = domain.NewLookupService(repo)
	}

	if cfg.CurseForge.APIKey == "" {
		lg.Printf("warning: no CurseForge API key (set CF_API_KEY); CurseForge lookups will fail")
	}

	f := fetch.New(fetch.Options{
		MaxAttempts: cfg.HTTP.MaxAttempts,
		BackoffBase: cfg.HTTP.BackoffBase,
		BackoffMax:  cfg.HTTP.BackoffMax,
		Timeout:     cfg.HTTP.Timeout,
		RequireJSON: true,
	}, lg)

	cf, err := provider.NewCurseForge(cfg.CurseForge.BaseURL, cfg.CurseForge.APIKey, f,
		newCollector(f, a.store, cfg.CurseForge, lg), lg)
	if err != nil {
		a.Close()
		return nil, err
	}
	mr := provider.NewModrinth(cfg.Modrinth.BaseURL, f, newCollector(f, a.store, cfg.Modrinth, lg), lg)

	a.pool = worker.New(provider.NewRegistry(cf, mr), cfg.Workers, a.history, lg)
	return a, nil
}

func newCollector(f provider.Getter, store *cache.Store, pc config.ProviderConfig, lg *logx.Logger) *provider.Collector {
	policy := provider.Strict()
	if pc.Tolerant() {
		policy = provider.Tolerant(pc.MaxPageFailures)
	}
	return provider.NewCollector(f, store, provider.CollectorOptions{
		PageSize:  pc.PageSize,
		PageDelay: pc.PageDelay,
		Policy:    policy,
	}, lg)
}

func (a *app) Close() {
	if a.repo != nil {
		a.repo.Close()
	}
}

func lookupAction(c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		u, err := prompt(os.Stdin, os.Stdout, "Mod URL: ")
		if err != nil {
			return err
		}
		urls = []string{u}
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.pool.RunBatch(c.Context, urls)
	sortByInput(results, urls)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			renderError(os.Stdout, r)
			continue
		}
		renderModInfo(os.Stdout, *r.Info)
	}
	if failed == len(results) {
		return cli.Exit("", 1)
	}
	return nil
}

// prompt reads one non-empty line from in.
func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no URL given")
	}
	return line, nil
}

func serveAction(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}
	addr := fmt.Sprintf(":%d", port)
	srv := httpAdapter.NewServer(a.pool, a.history, addr, a.log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		a.log.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		a.log.Printf("received signal %v, shutting down", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Printf("HTTP server shutdown error: %v", err)
	}

	a.log.Printf("shutdown complete")
	return nil
}

func historyAction(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.history == nil {
		return errors.New("history database unavailable")
	}

	if c.Args().Len() > 0 {
		id, err := strconv.ParseInt(c.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lookup ID %q", c.Args().First())
		}
		l, err := a.history.Get(c.Context, id)
		if err != nil {
			return err
		}
		renderLookup(os.Stdout, l)
		return nil
	}

	lookups, err := a.history.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	renderHistory(os.Stdout, lookups)
	return nil
}

func cacheClearAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	store := cache.New(cfg.CacheDir, cfg.CacheTTL)
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Printf("Cleared %s\n", store.Root())
	return nil
}
