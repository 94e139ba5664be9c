package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/careervibe/internal/api"
	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/config"
	"github.com/kalambet/careervibe/internal/dialogue"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/market"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/kalambet/careervibe/internal/storage"
	"github.com/kalambet/careervibe/internal/subflow"
	"github.com/kalambet/careervibe/internal/worker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the careervibe server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running careervibe server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show careervibe status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

// pidFile records the PID of a running server inside the data directory.
type pidFile string

func pidFileIn(dataDir string) pidFile {
	return pidFile(filepath.Join(dataDir, "careervibe.pid"))
}

func (p pidFile) write() error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o755); err != nil {
		return err
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func (p pidFile) remove() { os.Remove(string(p)) }

// setupLogging installs the default slog logger on stderr at the configured
// level. Unknown levels fall back to info.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// ensureNotRunning fails when something already answers /health on the
// configured port.
func ensureNotRunning(port int, pf pidFile) error {
	c := &http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	if err != nil {
		return nil
	}
	resp.Body.Close()
	if pid, err := pf.read(); err == nil {
		return fmt.Errorf("careervibe is already running (PID %d)", pid)
	}
	return fmt.Errorf("port %d is already serving /health", port)
}

func parseTTL(key, value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", def)
		return def
	}
	return d
}

// app is the wired service stack shared by the HTTP and MCP servers.
type app struct {
	gen    engine.Generator
	store  *storage.Store
	market *market.Client
	cards  *cards.Store
	flows  *subflow.Flows
	chat   *dialogue.Orchestrator
}

func buildApp(ctx context.Context, cfg config.Config, progress io.Writer) (*app, error) {
	gen, err := engine.New(engine.Config{
		Provider:         cfg.LLM.Provider,
		OllamaBaseURL:    cfg.Ollama.BaseURL,
		OllamaModel:      cfg.Ollama.Model,
		OpenRouterAPIKey: cfg.Proxy.OpenRouterAPIKey,
		OpenRouterModel:  cfg.Proxy.DefaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	if err := engine.EnsureReady(ctx, gen, progress); err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	mc := market.New(market.Config{
		BaseURL:   cfg.Market.BaseURL,
		Area:      cfg.Market.Area,
		UserAgent: cfg.Market.UserAgent,
		RateLimit: cfg.Market.RateLimit,
	})
	cs := cards.NewStore(store, gen, mc,
		parseTTL("cards.cache_ttl", cfg.Cards.CacheTTL, time.Hour),
		parseTTL("cards.catalog_ttl", cfg.Cards.CatalogTTL, 30*time.Second),
	)
	flows := subflow.New(gen, mc, cs, cs.Catalog())

	return &app{
		gen:    gen,
		store:  store,
		market: mc,
		cards:  cs,
		flows:  flows,
		chat: dialogue.New(dialogue.Config{
			Classifier:   intent.NewClassifier(gen),
			Detector:     persona.NewDetector(gen),
			Flows:        flows,
			Store:        cs,
			ShareBaseURL: cfg.Share.BaseURL,
		}),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "careervibe version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	pf := pidFileIn(cfg.Storage.DataDir)
	if err := ensureNotRunning(cfg.Server.Port, pf); err != nil {
		return err
	}
	if err := pf.write(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer pf.remove()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	handler := api.NewHandler(api.Deps{
		Chat:      a.chat,
		Cards:     a.cards,
		Catalog:   a.cards.Catalog(),
		Jobs:      a.store,
		Generator: a.gen,
		Token:     apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.New(a.store, a.cards, 500*time.Millisecond).Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "careervibe listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		stop()
		<-workerDone
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	<-workerDone
	return err
}

// runMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Chat:    a.chat,
		Cards:   a.cards,
		Catalog: a.cards.Catalog(),
		Flows:   a.flows,
		Market:  a.market,
	})
	slog.Info("MCP server started (stdio transport)")
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pf := pidFileIn(cfg.Storage.DataDir)
	pid, err := pf.read()
	if err != nil {
		return fmt.Errorf("careervibe is not running (no PID file)")
	}

	// FindProcess always succeeds on Unix; Signal reports a dead PID.
	process, _ := os.FindProcess(pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		printWarning("PID %d is gone, removing stale PID file", pid)
		pf.remove()
		return fmt.Errorf("stopping careervibe (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to careervibe (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("LLM provider", "%s", cfg.LLM.Provider)
	if cfg.LLM.Provider == config.ProviderOllama {
		printStatus("Model", "%s at %s", cfg.Ollama.Model, cfg.Ollama.BaseURL)
	} else {
		printStatus("Model", "%s", cfg.Proxy.DefaultModel)
	}
	printStatus("Market API", "%s (area %d)", cfg.Market.BaseURL, cfg.Market.Area)

	if running {
		if resp, err := client.Get(serverURL + "/v1/professions"); err == nil {
			var refs []json.RawMessage
			if json.NewDecoder(resp.Body).Decode(&refs) == nil {
				printStatus("Professions", "%d", len(refs))
			}
			resp.Body.Close()
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
