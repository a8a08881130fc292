package page

import (
	"context"
	"log/slog"

	"github.com/richinex/keylight/storage"
)

// Policy decides whether a freshly loaded page should be re-analyzed without
// user action.
type Policy struct {
	store storage.ContentStore
	log   *slog.Logger
}

// NewPolicy creates an auto-apply policy over the content store.
func NewPolicy(store storage.ContentStore, log *slog.Logger) *Policy {
	return &Policy{store: store, log: log}
}

// ShouldAutoApply reports whether analysis should run automatically for the
// URL: either this exact URL was highlighted before, or its origin opted into
// auto-highlight. The two conditions are independent and either suffices; the
// one that fired is returned as the reason and logged. Store errors read as
// "no".
func (p *Policy) ShouldAutoApply(ctx context.Context, rawURL string) (bool, string) {
	was, err := p.store.WasURLHighlighted(ctx, rawURL)
	if err != nil {
		p.log.Warn("url marker lookup failed", "url", rawURL, "error", err)
	}
	if was {
		p.log.Info("auto-apply", "reason", "url previously highlighted", "url", rawURL)
		return true, "url previously highlighted"
	}

	origin := storage.OriginOf(rawURL)
	enabled, err := p.store.IsAutoHighlightEnabled(ctx, origin)
	if err != nil {
		p.log.Warn("auto-highlight lookup failed", "origin", origin, "error", err)
	}
	if enabled {
		p.log.Info("auto-apply", "reason", "auto-highlight enabled for origin", "origin", origin)
		return true, "auto-highlight enabled for origin"
	}

	return false, ""
}
