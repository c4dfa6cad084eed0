// Package main is the DocuMind CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/documind/internal/agents"
	"github.com/hyperjump/documind/internal/cli"
	"github.com/hyperjump/documind/internal/config"
	"github.com/hyperjump/documind/internal/embedding"
	"github.com/hyperjump/documind/internal/extract"
	"github.com/hyperjump/documind/internal/indexer"
	"github.com/hyperjump/documind/internal/keyword"
	"github.com/hyperjump/documind/internal/llm"
	"github.com/hyperjump/documind/internal/search"
	"github.com/hyperjump/documind/internal/server"
	"github.com/hyperjump/documind/internal/storage"
	"github.com/hyperjump/documind/internal/vector"
	"github.com/hyperjump/documind/internal/watcher"
	"github.com/hyperjump/documind/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "~/.documind/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and a missing default file falls back to the
// built-in defaults. Returns the config and the path it came from ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				cfg, err := config.Load(local)
				if err != nil {
					return nil, "", err
				}
				return cfg, local, nil
			}
		}
		path = expandHome(path)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.Load("")
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "init":
		runInit(args)
	case "upload":
		runUpload(args)
	case "search":
		runSearch(args)
	case "ask":
		runAgent(string(agents.KindQA), args)
	case "summary":
		runAgent(string(agents.KindSummary), args)
	case "insights":
		runAgent(string(agents.KindInsight), args)
	case "status":
		runStatus(args)
	case "watch":
		runWatch(args)
	case "version", "--version", "-v":
		fmt.Printf("documind version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	host := fs.String("host", "", "override server.host")
	port := fs.Int("port", 0, "override server.port")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		fatalf("Invalid config: %v", err)
	}

	logger, err := utils.NewLoggerWithLevel(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("environment", cfg.Environment),
		zap.String("embedding_provider", cfg.Embedding.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchSvc := watcher.NewWatcher(&cfg.Watch, components.Indexer, watcher.WithLogger(logger))
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Runner,
		components.Storage,
		components.VectorIndex,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorIndex  vector.VectorIndex
	KeywordIndex keyword.Index
	Engine       *search.Engine
	Indexer      *indexer.Indexer
	Runner       *agents.Runner
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// initializeComponents builds the service graph and, unless disabled, replays the
// catalog into the in-memory indexes.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	fail := func(err error) (*Components, error) {
		c.Close()
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize storage: %w", err))
	}
	c.Storage = store

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize embedder: %w", err))
	}
	c.Embedder = embedder

	vectorIndex, err := vector.NewVectorIndex(cfg.Retrieval.IndexType, embedder.Dimensions())
	if err != nil {
		return fail(fmt.Errorf("failed to initialize vector index: %w", err))
	}
	c.VectorIndex = vectorIndex

	keywordIndex, err := keyword.NewBleveIndex("")
	if err != nil {
		return fail(fmt.Errorf("failed to initialize keyword index: %w", err))
	}
	c.KeywordIndex = keywordIndex

	chunker, err := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapOrDefault())
	if err != nil {
		return fail(err)
	}
	c.Indexer = indexer.NewIndexer(store, embedder, vectorIndex, keywordIndex, chunker, extract.NewExtractor(),
		indexer.WithLogger(logger))
	c.Engine = search.NewEngine(store, embedder, vectorIndex, keywordIndex,
		search.WithDefaultTopK(cfg.Retrieval.TopK))

	if cfg.Storage.RebuildOnStartOrDefault() {
		start := time.Now()
		n, err := c.Indexer.Rebuild(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to rebuild indexes: %w", err))
		}
		logger.Info("indexes rebuilt from catalog",
			zap.Int("documents", n),
			zap.Int("vectors", vectorIndex.Size()),
			zap.Duration("took", time.Since(start)))
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM API key configured; agent endpoints are disabled")
		return c, nil
	}
	gen, err := llm.NewOpenAIGenerator(&cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize LLM: %w", err))
	}
	c.Runner = agents.NewRunner(c.Engine, gen, cfg.Retrieval.TopK, agents.WithLogger(logger))
	logger.Info("agents enabled", zap.String("model", gen.Model()))
	return c, nil
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(args)

	path := expandHome(*configPath)
	if _, err := os.Stat(path); err == nil && !*force {
		fatalf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(path, cfg); err != nil {
		fatalf("Failed to write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	server  *string
	output  *string
	timeout *time.Duration
}

func addClientFlags(fs *flag.FlagSet, timeout time.Duration) clientFlags {
	return clientFlags{
		server:  fs.String("server", cli.DefaultServerURL, "server URL"),
		output:  fs.String("output", "text", "output format: text or json"),
		timeout: fs.Duration("timeout", timeout, "request timeout"),
	}
}

func (f clientFlags) client() (*cli.Client, cli.OutputFormat) {
	format, err := cli.ParseFormat(*f.output)
	if err != nil {
		fatalf("%v", err)
	}
	return cli.NewClient(*f.server, *f.timeout), format
}

func runUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	cf := addClientFlags(fs, 5*time.Minute)
	exts := fs.String("ext", strings.Join(config.DefaultExtensions, ","), "extensions to pick up from directories and patterns")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() < 1 {
		fatalf("Usage: documind upload [flags] <file|dir|pattern>...")
	}
	client, format := cf.client()

	files, err := cli.ExpandPaths(fs.Args(), splitList(*exts))
	if err != nil {
		fatalf("%v", err)
	}
	if len(files) == 0 {
		fatalf("No matching files")
	}

	ctx := context.Background()
	progress := cli.NewProgress(cli.ProgressEnabled() && format == cli.OutputText, os.Stderr, len(files), "uploading")
	var results []*cli.UploadResult
	failed := 0
	for _, f := range files {
		progress.Describe(filepath.Base(f))
		res, err := client.Upload(ctx, f)
		progress.Increment()
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", f, err)
			continue
		}
		results = append(results, res)
	}
	progress.Finish()

	if err := cli.WriteUploadResults(os.Stdout, results, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	if format == cli.OutputText {
		fmt.Printf("Uploaded %d of %d file(s)\n", len(results), len(files))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cf := addClientFlags(fs, 30*time.Second)
	topK := fs.Int("top-k", 0, "number of results (server default when 0)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: documind search [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(args))
	query := buildQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	client, format := cf.client()

	response, err := client.Search(context.Background(), query, *topK)
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAgent(kind string, args []string) {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	cf := addClientFlags(fs, 2*time.Minute)
	topK := fs.Int("top-k", 0, "number of context entries (server default when 0)")
	_ = fs.Parse(reorderArgs(args))
	question := buildQuery(fs.Args())
	if kind == string(agents.KindQA) && question == "" {
		fatalf("Usage: documind ask [flags] <question>")
	}
	client, format := cf.client()

	stop := cli.StartSpinner(cli.ProgressEnabled() && format == cli.OutputText, "thinking")
	response, err := client.Agent(context.Background(), kind, question, *topK)
	stop()
	if err != nil {
		switch {
		case cli.IsStatus(err, http.StatusServiceUnavailable):
			fatalf("Agents are disabled on the server: set %s or llm.api_key", config.EnvOpenAIKey)
		case cli.IsStatus(err, http.StatusNotFound):
			fatalf("Nothing indexed yet that matches; upload documents first")
		}
		fatalf("%s failed: %v", kind, err)
	}
	if err := cli.WriteAgentResponse(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addClientFlags(fs, 10*time.Second)
	_ = fs.Parse(args)
	client, format := cf.client()

	status, err := client.Status(context.Background())
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runWatch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: documind watch <add|remove|list> [path]")
		fmt.Println("  documind watch add <path>     Add directory to watch")
		fmt.Println("  documind watch remove <path>  Remove directory from watch")
		fmt.Println("  documind watch list           List watched directories")
		os.Exit(1)
	}
	sub := args[0]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cf := addClientFlags(fs, 30*time.Second)
	noSync := fs.Bool("no-sync", false, "do not index existing files when adding")
	_ = fs.Parse(reorderArgs(args[1:]))
	client, _ := cf.client()
	ctx := context.Background()

	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: documind watch %s <path>", sub)
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fatalf("Invalid path: %v", err)
		}
		if sub == "add" {
			err = client.AddWatchDirectory(ctx, path, !*noSync)
		} else {
			err = client.RemoveWatchDirectory(ctx, path)
		}
		if err != nil {
			fatalf("Watch %s failed: %v", sub, err)
		}
		fmt.Printf("%s: %s\n", map[string]string{"add": "Added", "remove": "Removed"}[sub], path)
	case "list":
		dirs, err := client.WatchDirectories(ctx)
		if err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. The flag package stops at the
// first non-flag argument, so "documind search budget -top-k 3" would otherwise leave
// -top-k unparsed.
func reorderArgs(args []string) []string {
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

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printUsage() {
	fmt.Println(`documind - document intelligence over your own files

Usage:
  documind server [flags]               Start the HTTP server
  documind init [flags]                 Write a default config file
  documind upload [flags] <path>...     Upload files, directories or glob patterns (e.g. "docs/**/*.pdf")
  documind search [flags] <query>       Retrieve the most relevant passages
  documind ask [flags] <question>       Answer a question from the indexed documents
  documind summary [flags] [focus]      Summarize the indexed documents
  documind insights [flags] [focus]     Report risks, opportunities and action items
  documind status [flags]               Show index and server status
  documind watch <add|remove|list>      Manage watched directories
  documind version                      Show version
  documind help                         Show this help

Server Flags:
  --config string    Config file path (default: ~/.documind/config.yaml, or ./config.yaml when present)
  --debug            Enable debug logging
  --host string      Override server.host
  --port int         Override server.port

Client Flags (upload, search, ask, summary, insights, status, watch):
  --server string    Server URL (default: http://localhost:8000)
  --output string    Output format: text or json (default: text)
  --timeout dur      Request timeout
  --top-k int        Number of context entries (search and agents)
  --ext list         Extensions picked up from directories and patterns (upload)

Environment:
  OPENAI_API_KEY       API key for OpenAI embeddings and the agents
  OPENAI_MODEL         Chat model used by the agents
  OPENAI_BASE_URL      OpenAI-compatible endpoint
  DOCUMIND_ENV         development or production (controls log format)
  DOCUMIND_LOG_LEVEL   debug, info, warn or error

Examples:
  documind init
  documind server
  documind upload report.pdf "contracts/**/*.docx"
  documind search "quarterly revenue"
  documind ask What is the project budget?
  documind summary --output json
  documind watch add ~/Documents/work`)
}
