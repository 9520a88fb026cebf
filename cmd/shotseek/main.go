// Package main is the Shotseek CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/minatori/shotseek/internal/cli"
	"github.com/minatori/shotseek/internal/config"
	"github.com/minatori/shotseek/internal/embedding"
	"github.com/minatori/shotseek/internal/engine"
	"github.com/minatori/shotseek/internal/ingest"
	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/internal/server"
	"github.com/minatori/shotseek/internal/store"
	"github.com/minatori/shotseek/internal/submit"
	"github.com/minatori/shotseek/internal/vector"
	"github.com/minatori/shotseek/internal/watcher"
	"github.com/minatori/shotseek/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shotseek/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "shotseek server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "stats":
		runStats()
	case "snapshot":
		runSnapshot()
	case "submit":
		runSubmit()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("shotseek version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (directory changes, artifact ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pipeline := components.Pipeline
	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Ingest.Directories,
		cfg.Ingest.Extensions,
		cfg.Ingest.RecursiveOrDefault(),
		func(path string) {
			if _, err := pipeline.IngestFile(context.Background(), path); err != nil {
				logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srvOpts := []server.ServerOption{
		server.WithWatch(watchSvc, resolvedConfigPath),
	}
	var submitLog *submit.Log
	if cfg.Submit.Enabled {
		submitLog, err = submit.NewLog(cfg.Storage.SubmissionLogPath)
		if err != nil {
			logger.Fatal("Failed to open submission log", zap.Error(err))
		}
		defer submitLog.Close()
		submitClient := submit.NewClient(&cfg.Submit, submitLog, submit.WithLogger(logger))
		srvOpts = append(srvOpts, server.WithSubmit(submitClient, submitLog))
	}

	srv := server.NewServer(
		components.Engine,
		pipeline,
		cfg,
		logger,
		srvOpts...,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.SnapshotPath != "" && components.Engine.Count() > 0 {
		if err := components.Engine.SaveSnapshot(cfg.Storage.SnapshotPath); err != nil {
			logger.Warn("snapshot save failed", zap.String("path", cfg.Storage.SnapshotPath), zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// searchArgsReorder moves any flags to the front so "shotseek search some query -top-k 5"
// parses the same as "shotseek search -top-k 5 some query".
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchQuery joins the positional arguments into one query string, so
// multi-word queries work with or without quotes.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = query the local snapshot directly)")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	case "compact":
		format = cli.OutputCompact
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	request := &models.SearchRequest{
		Query: queryStr,
		TopK:  *topK,
	}

	if *serverURL != "" {
		// Use the HTTP API when a server is running (the snapshot has a single writer).
		response, err := searchViaHTTP(*serverURL, request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct snapshot access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	response, err := components.Engine.Search(context.Background(), request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shotseek search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  shotseek search red car on a bridge
  shotseek search "red car on a bridge"       # same as above
  shotseek search --top-k 20 crowd at night
  shotseek search --output json sunset        # structured JSON for other apps
  shotseek search --output compact sunset     # one tab-separated line per hit
`)
}

func searchViaHTTP(serverURL string, request *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "send the path to a running server instead of ingesting locally")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shotseek ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}

	if *serverURL != "" {
		ingested, skipped, err := ingestViaHTTP(*serverURL, path)
		if err != nil {
			fmt.Printf("Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d shot(s) (%d skipped) from %s\n", ingested, skipped, path)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	var reports []*models.IngestReport
	if info.IsDir() {
		reports, err = components.Pipeline.IngestDirectory(ctx, path)
	} else {
		var report *models.IngestReport
		report, err = components.Pipeline.IngestFile(ctx, path)
		if report != nil {
			reports = append(reports, report)
		}
	}
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		os.Exit(1)
	}
	var ingested, skipped int
	for _, report := range reports {
		ingested += report.Ingested
		skipped += report.Skipped
	}
	if ingested > 0 && cfg.Storage.SnapshotPath != "" {
		if err := components.Engine.SaveSnapshot(cfg.Storage.SnapshotPath); err != nil {
			fmt.Printf("Failed to save snapshot: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Ingested %d shot(s) (%d skipped) from %s\n", ingested, skipped, path)
}

func ingestViaHTTP(serverURL, path string) (int, int, error) {
	body, _ := json.Marshal(map[string]string{"path": path})
	resp, err := http.Post(serverURL+"/api/v1/ingest", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Ingested int `json:"ingested"`
		Skipped  int `json:"skipped"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}
	return out.Ingested, out.Skipped, nil
}

// statsOutput is models.Stats plus, in direct mode, the config the engine ran with.
type statsOutput struct {
	models.Stats
	Config *statsConfigOutput `json:"config,omitempty"`
}

type statsConfigOutput struct {
	IndexType    string `json:"index_type"`
	Dimensions   int    `json:"embedding_dimensions,omitempty"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
	KeyframeDir  string `json:"keyframe_dir,omitempty"`
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct snapshot mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read the local snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var out statsOutput
	if *serverURL != "" {
		stats, err := statsViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		out.Stats = *stats
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		out.Stats = components.Engine.Stats()
		out.Config = &statsConfigOutput{
			IndexType:    cfg.Search.IndexType,
			Dimensions:   cfg.Embedding.Dimensions,
			SnapshotPath: cfg.Storage.SnapshotPath,
			KeyframeDir:  cfg.Storage.KeyframeDir,
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("loaded:              %t   # false until the first shot is ingested\n", out.Loaded)
		fmt.Printf("dimension:           %d   # embedding vector width\n", out.Dimension)
		fmt.Printf("total_videos:        %d\n", out.TotalVideos)
		fmt.Printf("total_shots:         %d\n", out.TotalShots)
		fmt.Printf("total_duration_s:    %.1f\n", out.TotalDurationSeconds)
		fmt.Printf("avg_shot_duration_s: %.2f\n", out.AverageShotDuration)
		if out.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("index_type:          %s\n", out.Config.IndexType)
			if out.Config.Dimensions > 0 {
				fmt.Printf("embedding_dims:      %d\n", out.Config.Dimensions)
			}
			if out.Config.SnapshotPath != "" {
				fmt.Printf("snapshot_path:       %s\n", out.Config.SnapshotPath)
			}
			if out.Config.KeyframeDir != "" {
				fmt.Printf("keyframe_dir:        %s\n", out.Config.KeyframeDir)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statsViaHTTP(serverURL string) (*models.Stats, error) {
	resp, err := http.Get(serverURL + "/api/v1/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var stats models.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &stats, nil
}

func runSnapshot() {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Post(*serverURL+"/api/v1/snapshot", "application/json", nil)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Snapshot failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Path  string `json:"path"`
		Shots int    `json:"shots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot saved: %s (%d shots)\n", out.Path, out.Shots)
}

func runSubmit() {
	submitArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	queryText := fs.String("query", "", "query text to keep in the submission log")
	_ = fs.Parse(submitArgs)

	if fs.NArg() < 2 {
		fmt.Println("Usage: shotseek submit [flags] <video-id> <timestamp-seconds>")
		os.Exit(1)
	}
	videoID := fs.Arg(0)
	timestamp, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		fmt.Printf("Invalid timestamp %q: %v\n", fs.Arg(1), err)
		os.Exit(1)
	}

	body, _ := json.Marshal(submit.Request{
		VideoID:   videoID,
		Timestamp: timestamp,
		Query:     *queryText,
	})
	resp, err := http.Post(*serverURL+"/api/v1/submit", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Submit failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var sub submit.Submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Submission %s: %s (video %s at %s)\n", sub.ID, sub.Status, sub.VideoID, cli.FormatTimestamp(sub.Timestamp))
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: shotseek watch <add|remove|list> [path]")
		fmt.Println("  shotseek watch add <path>     Add artifact directory to watch")
		fmt.Println("  shotseek watch remove <path>  Remove directory from watch")
		fmt.Println("  shotseek watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	syncExisting := fs.Bool("sync", true, "ingest existing artifacts when adding a directory")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: shotseek watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": *syncExisting})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: shotseek watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds the initialized engine and its collaborators, shared by the
// server and the direct CLI modes.
type Components struct {
	Embedder embedding.Embedder
	Engine   *engine.Engine
	Pipeline *ingest.Pipeline
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		if logger != nil {
			logger.Warn("text encoder unavailable, falling back to mock embeddings",
				zap.String("model_path", cfg.Embedding.ModelPath),
				zap.Error(err))
		}
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	index, err := vector.New(cfg.Search.IndexType, cfg.Embedding.Dimensions)
	if err != nil {
		// Fall back to the flat index if the configured type is unknown.
		if cfg.Search.IndexType != "flat" && cfg.Search.IndexType != "" {
			if logger != nil {
				logger.Warn("failed to create vector index, falling back to flat",
					zap.String("requested_type", cfg.Search.IndexType),
					zap.Error(err))
			}
			index, err = vector.New("flat", cfg.Embedding.Dimensions)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize vector index: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	}

	meta := store.NewMetadata()

	engOpts := []engine.Option{}
	if debug && logger != nil {
		engOpts = append(engOpts, engine.WithLogger(logger))
	}
	eng := engine.NewEngine(index, meta, embedder, engOpts...)

	if path := cfg.Storage.SnapshotPath; path != "" {
		if loadErr := eng.LoadSnapshot(path); loadErr != nil {
			if logger != nil {
				if errors.Is(loadErr, os.ErrNotExist) {
					logger.Info("no snapshot found, starting empty", zap.String("path", path))
				} else {
					logger.Warn("snapshot load failed, starting empty", zap.String("path", path), zap.Error(loadErr))
				}
			}
		} else if logger != nil {
			logger.Info("snapshot loaded", zap.String("path", path), zap.Int("shots", eng.Count()))
		}
	}

	pipeOpts := []ingest.PipelineOption{
		ingest.WithSnapshotPath(cfg.Storage.SnapshotPath),
	}
	if debug && logger != nil {
		pipeOpts = append(pipeOpts, ingest.WithLogger(logger))
	}
	pipeline := ingest.NewPipeline(eng, &cfg.Ingest, pipeOpts...)

	return &Components{
		Embedder: embedder,
		Engine:   eng,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`shotseek - Text-to-shot retrieval for video collections

Usage:
  shotseek server [flags]                         Start the HTTP server
  shotseek search [flags] <query>                 Search indexed shots
  shotseek ingest [flags] <file-or-directory>     Ingest shot artifact files
  shotseek stats [flags]                          Show engine statistics
  shotseek snapshot [flags]                       Ask a running server to save its snapshot
  shotseek submit [flags] <video-id> <timestamp>  Submit an answer for a video moment
  shotseek watch <add|remove|list>                Manage watched artifact directories
  shotseek version                                Show version
  shotseek help                                   Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shotseek/config.yaml)
  --debug            Enable debug logging (directory changes, artifact ingestion, etc.)

Search Flags:
  --config string    Config file path (for direct snapshot mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to read the snapshot directly when no server is running.
  --top-k int        Number of results (default: server default, 10)
  --output string    Output format: text, compact, or json (default: text)

Ingest Flags:
  --config string    Config file path
  --server string    Send the path to a running server instead of ingesting locally

Stats Flags:
  --config string    Config file path (for direct snapshot mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct snapshot mode.
  --output string    Output format: text or json (default: text)

Submit Flags:
  --server string    Server URL (default: http://localhost:8080)
  --query string     Query text to keep in the submission log

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)
  --sync             Ingest existing artifacts when adding a directory (default: true)

Examples:
  shotseek server
  shotseek search red car on a bridge
  shotseek search --top-k 20 "crowd at a concert"
  shotseek search --output json sunset   # structured JSON for other apps
  shotseek ingest /data/artifacts/00102.json
  shotseek ingest /data/artifacts
  shotseek stats
  shotseek stats --output json
  shotseek submit 00102 42.5 --query "red car"
  shotseek watch add /data/artifacts
  shotseek watch list`)
}
