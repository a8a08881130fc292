// Command execution for CLI commands.
//
// Information Hiding:
// - Settings/store/provider wiring hidden
// - Page fetching and output writing hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richinex/keylight/analysis"
	"github.com/richinex/keylight/config"
	"github.com/richinex/keylight/host"
	"github.com/richinex/keylight/internal/logging"
	"github.com/richinex/keylight/llm"
	"github.com/richinex/keylight/page"
	"github.com/richinex/keylight/storage"
)

// Options holds CLI execution options shared by every command.
type Options struct {
	DBPath    string
	LogLevel  string
	LogFormat string
}

const fetchTimeout = 30 * time.Second

// setup loads settings, builds the logger and opens the store.
func setup(opts Options) (config.Settings, *slog.Logger, *storage.SqliteStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Settings{}, nil, nil, err
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	logger, err := logging.New(logging.Options{Level: opts.LogLevel, Format: opts.LogFormat})
	if err != nil {
		return config.Settings{}, nil, nil, err
	}

	store, err := storage.OpenSqlite(cfg.DBPath)
	if err != nil {
		return config.Settings{}, nil, nil, err
	}
	return cfg, logger, store, nil
}

// Analyze fetches or reads target, runs the pipeline and writes the
// highlighted document to output ("" or "-" means stdout). With clear set it
// strips existing highlights instead of analyzing.
func Analyze(ctx context.Context, target, output string, clear bool, opts Options) error {
	cfg, logger, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	src, pageURL, err := fetchTarget(ctx, target)
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := page.Parse(src, pageURL)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	if clear {
		removed := page.ClearHighlights(doc)
		fmt.Fprintf(os.Stderr, "Removed %d highlights.\n", removed)
		return writeDocument(doc, output)
	}

	provider, err := llm.New(cfg.Provider, cfg.APIKey, cfg.APIURL, cfg.Model, analysis.MaxTokens, analysis.Temperature)
	if err != nil {
		return err
	}

	client := analysis.NewClient(provider, logger)
	analyzer := page.NewAnalyzer(store, client, cfg, logger)

	res := analyzer.AnalyzePage(ctx, doc)
	if !res.Success {
		return errors.New(res.Message)
	}

	fmt.Fprintf(os.Stderr, "%s\n", strings.ToUpper(res.Message[:1])+res.Message[1:])
	return writeDocument(doc, output)
}

// RunHost runs the native-messaging loop on stdin/stdout until the browser
// closes the pipe. Incomplete configuration is not fatal here: analysis
// requests simply answer with the configuration error.
func RunHost(ctx context.Context, opts Options) error {
	cfg, logger, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := llm.New(cfg.Provider, cfg.APIKey, cfg.APIURL, cfg.Model, analysis.MaxTokens, analysis.Temperature)
	if err != nil {
		return err
	}

	dispatcher := host.NewDispatcher(store, analysis.NewClient(provider, logger), cfg, logger)
	logger.Info("native messaging host started", "db", cfg.DBPath, "provider", cfg.Provider)
	return dispatcher.Serve(ctx, os.Stdin, os.Stdout)
}

// SetAutoHighlight enables or disables auto-highlight for an origin.
func SetAutoHighlight(ctx context.Context, origin string, enabled bool, opts Options) error {
	_, _, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	origin = storage.OriginOf(origin)
	if err := store.SetAutoHighlight(ctx, origin, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Auto-highlight %s for %s\n", state, origin)
	return nil
}

// ShowAutoHighlight prints whether an origin opted into auto-highlight.
func ShowAutoHighlight(ctx context.Context, origin string, opts Options) error {
	_, _, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	origin = storage.OriginOf(origin)
	enabled, err := store.IsAutoHighlightEnabled(ctx, origin)
	if err != nil {
		return err
	}
	if enabled {
		fmt.Printf("Auto-highlight is enabled for %s\n", origin)
	} else {
		fmt.Printf("Auto-highlight is disabled for %s\n", origin)
	}
	return nil
}

// SweepCache removes every expired cache entry and URL marker.
func SweepCache(ctx context.Context, opts Options) error {
	_, _, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.SweepExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cache entries and %d URL markers.\n", result.CacheEntries, result.URLMarkers)
	return nil
}

// ClearOriginCache removes all cached state for an origin.
func ClearOriginCache(ctx context.Context, origin string, opts Options) error {
	_, _, store, err := setup(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	origin = storage.OriginOf(origin)
	removed, err := store.ClearOriginCache(ctx, origin)
	if err != nil {
		return err
	}
	if removed {
		fmt.Printf("Cleared cached state for %s\n", origin)
	} else {
		fmt.Printf("Nothing cached for %s\n", origin)
	}
	return nil
}

// fetchTarget opens target as an HTTP URL or a local file and returns the
// content along with the URL that identifies the page for caching.
func fetchTarget(ctx context.Context, target string) (io.ReadCloser, string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, "", fmt.Errorf("invalid url: %w", err)
		}
		req.Header.Set("User-Agent", "keylight/1.0")

		client := &http.Client{Timeout: fetchTimeout}
		resp, err := client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch page: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, "", fmt.Errorf("failed to fetch page: status %s", resp.Status)
		}
		return resp.Body, target, nil
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, "", err
	}
	return f, "file://" + abs, nil
}

func writeDocument(doc *page.Document, output string) error {
	if output == "" || output == "-" {
		return doc.Render(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	return doc.Render(f)
}
