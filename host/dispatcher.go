package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/richinex/keylight/config"
	"github.com/richinex/keylight/page"
	"github.com/richinex/keylight/storage"
)

// Request is one message from the extension shell. Action selects the
// operation; the remaining fields are action-specific.
type Request struct {
	Action  string `json:"action"`
	URL     string `json:"url,omitempty"`
	HTML    string `json:"html,omitempty"`
	Origin  string `json:"origin,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// StatusResponse answers actions that only report success.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AnalyzeResponse answers analyzeContent and clearHighlights: the rewritten
// document travels back with the status.
type AnalyzeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// AutoStatusResponse answers getDomainAutoHighlightStatus.
type AutoStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// PageLoadedResponse answers the pageLoaded auto-apply hook.
type PageLoadedResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Dispatcher routes requests to the pipeline. The store and extractor are
// injected so tests can run it against fakes.
type Dispatcher struct {
	store     storage.ContentStore
	extractor page.Extractor
	cfg       config.Settings
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher over the given collaborators.
func NewDispatcher(store storage.ContentStore, extractor page.Extractor, cfg config.Settings, log *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, extractor: extractor, cfg: cfg, log: log}
}

// Handle executes one request and returns the response to send. It never
// returns an error: anything that goes wrong is reported inside the response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) any {
	switch req.Action {
	case "analyzeContent":
		return d.analyzeContent(ctx, req)
	case "clearHighlights":
		return d.clearHighlights(req)
	case "cleanupCache":
		return d.cleanupCache(ctx)
	case "clearDomainCache":
		return d.clearDomainCache(ctx, req)
	case "getDomainAutoHighlightStatus":
		enabled, err := d.store.IsAutoHighlightEnabled(ctx, req.Origin)
		if err != nil {
			d.log.Warn("auto-highlight lookup failed", "origin", req.Origin, "error", err)
		}
		return AutoStatusResponse{Enabled: enabled}
	case "setDomainAutoHighlight":
		return d.setDomainAutoHighlight(ctx, req)
	case "pageLoaded":
		return d.pageLoaded(ctx, req)
	default:
		return StatusResponse{Success: false, Message: fmt.Sprintf("unknown action: %q", req.Action)}
	}
}

func (d *Dispatcher) analyzeContent(ctx context.Context, req Request) AnalyzeResponse {
	doc, err := page.Parse(strings.NewReader(req.HTML), req.URL)
	if err != nil {
		return AnalyzeResponse{Success: false, Message: fmt.Sprintf("failed to parse page: %v", err)}
	}

	analyzer := page.NewAnalyzer(d.store, d.extractor, d.cfg, d.log)
	res := analyzer.AnalyzePage(ctx, doc)
	resp := AnalyzeResponse{Success: res.Success, Message: res.Message}
	if res.Success {
		resp.HTML = renderDocument(doc)
	}
	return resp
}

func (d *Dispatcher) clearHighlights(req Request) AnalyzeResponse {
	doc, err := page.Parse(strings.NewReader(req.HTML), req.URL)
	if err != nil {
		return AnalyzeResponse{Success: false, Message: fmt.Sprintf("failed to parse page: %v", err)}
	}
	removed := page.ClearHighlights(doc)
	return AnalyzeResponse{
		Success: true,
		Message: fmt.Sprintf("removed %d highlights", removed),
		HTML:    renderDocument(doc),
	}
}

func (d *Dispatcher) cleanupCache(ctx context.Context) StatusResponse {
	result, err := d.store.SweepExpired(ctx)
	if err != nil {
		d.log.Warn("expiration sweep failed", "error", err)
		return StatusResponse{Success: false, Message: "cache sweep failed"}
	}
	d.log.Info("expiration sweep complete",
		"cache_entries", result.CacheEntries, "url_markers", result.URLMarkers)
	return StatusResponse{Success: true}
}

func (d *Dispatcher) clearDomainCache(ctx context.Context, req Request) StatusResponse {
	removed, err := d.store.ClearOriginCache(ctx, req.Origin)
	if err != nil {
		d.log.Warn("origin cache clear failed", "origin", req.Origin, "error", err)
		return StatusResponse{Success: false, Message: "cache clear failed"}
	}
	d.log.Info("origin cache cleared", "origin", req.Origin, "removed", removed)
	return StatusResponse{Success: true}
}

func (d *Dispatcher) setDomainAutoHighlight(ctx context.Context, req Request) StatusResponse {
	if req.Enabled == nil {
		return StatusResponse{Success: false, Message: "missing enabled flag"}
	}
	if err := d.store.SetAutoHighlight(ctx, req.Origin, *req.Enabled); err != nil {
		d.log.Warn("auto-highlight update failed", "origin", req.Origin, "error", err)
		return StatusResponse{Success: false, Message: "failed to update auto-highlight"}
	}
	return StatusResponse{Success: true}
}

func (d *Dispatcher) pageLoaded(ctx context.Context, req Request) PageLoadedResponse {
	policy := page.NewPolicy(d.store, d.log)
	apply, reason := policy.ShouldAutoApply(ctx, req.URL)
	if !apply {
		return PageLoadedResponse{Applied: false}
	}

	res := d.analyzeContent(ctx, req)
	return PageLoadedResponse{
		Applied: res.Success,
		Reason:  reason,
		Message: res.Message,
		HTML:    res.HTML,
	}
}

// Serve reads frames until EOF, answering each one. A malformed message gets
// an error response; a transport error ends the loop. No single request can
// take the host down.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := ReadMessage(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req Request
		var resp any
		if err := json.Unmarshal(payload, &req); err != nil {
			resp = StatusResponse{Success: false, Message: "malformed request"}
		} else {
			resp = d.Handle(ctx, req)
		}

		if err := WriteMessage(w, resp); err != nil {
			// An oversized response must not take the host down; tell
			// the extension and keep serving. Transport errors end the loop.
			d.log.Warn("response write failed", "action", req.Action, "error", err)
			fallback := StatusResponse{Success: false, Message: "response too large"}
			if err := WriteMessage(w, fallback); err != nil {
				return err
			}
		}
	}
}

func renderDocument(doc *page.Document) string {
	var sb strings.Builder
	if err := doc.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}
