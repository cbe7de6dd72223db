// Package main is the Tarjama CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/cli"
	"github.com/foodlang/tarjama/internal/config"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/server"
	"github.com/foodlang/tarjama/internal/service"
	"github.com/foodlang/tarjama/internal/watcher"
	"github.com/foodlang/tarjama/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tarjama/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used.
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
	case "translate":
		runTranslate()
	case "extract":
		runExtract()
	case "upload":
		runUpload()
	case "rollback":
		runRollback()
	case "versions":
		runVersions()
	case "usage":
		runUsage()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tarjama version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: tarjama <command> [flags]

Commands:
  server      start the HTTP API server
  translate   translate food label text
  extract     extract and translate text from an image or document
  upload      upload a glossary workbook (.xlsx)
  rollback    activate a previous glossary version
  versions    list glossary version history
  usage       show token usage and cost statistics
  status      show server status
  version     print version

Run 'tarjama <command> -h' for command flags.
`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
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

	svc, err := service.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer svc.Close()

	if _, err := os.Stat(cfg.Glossary.DefaultPath); err == nil {
		if _, err := svc.LoadDefaultGlossary(context.Background()); err != nil {
			logger.Warn("default glossary load failed", zap.Error(err))
		}
	} else {
		logger.Info("no default glossary file; waiting for upload",
			zap.String("path", cfg.Glossary.DefaultPath))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Glossary.Watch {
		w, err := watcher.New(cfg.Glossary.DefaultPath, func(path string) {
			if _, err := svc.LoadDefaultGlossary(context.Background()); err != nil {
				logger.Warn("glossary reload failed", zap.String("path", path), zap.Error(err))
			}
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create glossary watcher", zap.Error(err))
		}
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start glossary watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(svc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runTranslate() {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "Usage: tarjama translate [flags] <text>")
		os.Exit(1)
	}
	format := mustFormat(*outputFormat)

	body, err := json.Marshal(models.TranslateRequest{Text: text})
	if err != nil {
		fatal(err)
	}
	var translation models.Translation
	if err := postJSON(*serverURL+"/api/v1/translate", body, &translation); err != nil {
		fatal(err)
	}
	if err := cli.WriteTranslation(os.Stdout, &translation, format); err != nil {
		fatal(err)
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	method := fs.String("method", "", "OCR method for images: vision or tesseract (default: server config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tarjama extract [flags] <file>")
		os.Exit(1)
	}
	format := mustFormat(*outputFormat)

	var fields map[string]string
	if *method != "" {
		fields = map[string]string{"method": *method}
	}
	var extraction models.Extraction
	if err := postFile(*serverURL+"/api/v1/extract", fs.Arg(0), fields, &extraction); err != nil {
		fatal(err)
	}
	if err := cli.WriteExtraction(os.Stdout, &extraction, format); err != nil {
		fatal(err)
	}
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tarjama upload [flags] <glossary.xlsx>")
		os.Exit(1)
	}

	var res struct {
		Version      models.VersionInfo `json:"version"`
		ValidCount   int                `json:"valid_count"`
		SkippedCount int                `json:"skipped_count"`
	}
	if err := postFile(*serverURL+"/api/v1/admin/glossary", fs.Arg(0), nil, &res); err != nil {
		fatal(err)
	}
	fmt.Printf("Committed version %d: %d entries (%d skipped)\n",
		res.Version.ID, res.ValidCount, res.SkippedCount)
}

func runRollback() {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	versionID := fs.Uint64("to", 0, "version id to activate")
	_ = fs.Parse(os.Args[2:])

	if *versionID == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tarjama rollback -to <version>")
		os.Exit(1)
	}

	body, err := json.Marshal(map[string]uint64{"version_id": *versionID})
	if err != nil {
		fatal(err)
	}
	var info models.VersionInfo
	if err := postJSON(*serverURL+"/api/v1/admin/rollback", body, &info); err != nil {
		fatal(err)
	}
	fmt.Printf("Active version is now %d (%d entries)\n", info.ID, info.Entries)
}

func runVersions() {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustFormat(*outputFormat)

	var res struct {
		Versions []models.VersionInfo `json:"versions"`
	}
	if err := getJSON(*serverURL+"/api/v1/admin/versions", &res); err != nil {
		fatal(err)
	}
	if err := cli.WriteVersions(os.Stdout, res.Versions, format); err != nil {
		fatal(err)
	}
}

func runUsage() {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustFormat(*outputFormat)

	// the admin route carries the per-endpoint breakdown the text output shows
	var stats models.UsageStats
	if err := getJSON(*serverURL+"/api/v1/admin/usage", &stats); err != nil {
		fatal(err)
	}
	if err := cli.WriteUsage(os.Stdout, &stats, format); err != nil {
		fatal(err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustFormat(*outputFormat)

	var st service.Status
	if err := getJSON(*serverURL+"/api/v1/status", &st); err != nil {
		fatal(err)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			fatal(err)
		}
		return
	}
	if st.GlossaryLoaded {
		fmt.Printf("Glossary: version %d, %d entries (source %s)\n",
			st.ActiveVersion.ID, st.ActiveVersion.Entries, st.ActiveVersion.Source)
	} else {
		fmt.Println("Glossary: not loaded")
	}
	fmt.Printf("Versions: %d | Uptime: %ds\n", st.Versions, st.UptimeSeconds)
	fmt.Printf("Provider: %s | Embedding: %s (%d dims) | Chat: %s | Top-K: %d\n",
		st.Provider, st.EmbeddingModel, st.Dimensions, st.ChatModel, st.TopK)
}

func mustFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(url string, body []byte, out interface{}) error {
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// postFile uploads path as the "file" part of a multipart form.
func postFile(url, path string, fields map[string]string, out interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
