package page

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/richinex/keylight/config"
	"github.com/richinex/keylight/internal/digest"
	"github.com/richinex/keylight/internal/pool"
	"github.com/richinex/keylight/storage"
)

// Extractor produces keypoints for one text unit. It reports failure by
// returning nothing; analysis.Client satisfies this.
type Extractor interface {
	Extract(ctx context.Context, text string) []string
}

// Result is the outcome of an analysis pass, surfaced to the user.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Highlights int    `json:"highlights"`
}

// Analyzer runs the analyze-and-highlight pipeline over a document:
// segment, consult the content store, extract on miss, then wrap matches.
type Analyzer struct {
	store     storage.ContentStore
	extractor Extractor
	cfg       config.Settings
	log       *slog.Logger
}

// NewAnalyzer wires the pipeline. The store and extractor are injected so
// tests can substitute both.
func NewAnalyzer(store storage.ContentStore, extractor Extractor, cfg config.Settings, log *slog.Logger) *Analyzer {
	return &Analyzer{store: store, extractor: extractor, cfg: cfg, log: log}
}

// AnalyzePage analyzes the document and applies highlights in place.
//
// Only two conditions surface as failure: incomplete configuration and a
// page with nothing to analyze. Per-unit trouble (remote call failure,
// store I/O, unparseable reply) is logged and costs that unit its
// keypoints, nothing more.
func (a *Analyzer) AnalyzePage(ctx context.Context, doc *Document) Result {
	if !a.cfg.IsComplete() {
		return Result{Success: false, Message: "configuration incomplete: API URL, key and model are required"}
	}

	units := doc.TextUnits(a.cfg.MinUnitLength)
	if len(units) == 0 {
		return Result{Success: false, Message: "no analyzable content found"}
	}

	origin := doc.Origin()
	runID := uuid.NewString()
	log := a.log.With("run_id", runID, "origin", origin)
	log.Debug("analysis pass starting", "units", len(units), "url", doc.URL)

	// Keypoints land at the unit's own index; no cross-goroutine sharing.
	keypoints := make([][]string, len(units))

	_ = pool.Run(ctx, len(units), a.cfg.Concurrency, func(ctx context.Context, i int) {
		text := units[i].Text
		hash := digest.Sum(text)

		cached, ok, err := a.store.Get(ctx, origin, hash)
		if err != nil {
			// A store failure reads as a miss; caching is only an optimization.
			log.Warn("cache read failed", "hash", hash[:8], "error", err)
		}
		if ok {
			log.Debug("cache hit", "hash", hash[:8])
			keypoints[i] = cached
			return
		}

		extracted := a.extractor.Extract(ctx, text)
		if len(extracted) == 0 {
			return
		}
		keypoints[i] = extracted

		if err := a.store.Put(ctx, origin, hash, extracted); err != nil {
			log.Warn("cache write failed", "hash", hash[:8], "error", err)
		}
	})

	styleAttr := StyleAttr(a.cfg.HighlightStyle, a.cfg.HighlightColor)
	total, sections := 0, 0
	for i, unit := range units {
		eligible := FilterKeypoints(unit.Text, keypoints[i])
		if len(eligible) == 0 {
			continue
		}
		if n := Highlight(unit.Node, eligible, styleAttr); n > 0 {
			total += n
			sections++
		}
	}

	// The URL marker records that a pass actually highlighted something here,
	// whether the keypoints came from the model or from cache. A pass that
	// wrapped nothing leaves no marker, so the URL won't auto-apply later.
	if total > 0 {
		if err := a.store.MarkURLHighlighted(ctx, doc.URL); err != nil {
			log.Warn("url marker write failed", "error", err)
		}
	}

	log.Info("analysis pass complete", "highlights", total, "sections", sections)
	return Result{
		Success:    true,
		Message:    fmt.Sprintf("highlighted %d passages across %d sections", total, sections),
		Highlights: total,
	}
}
