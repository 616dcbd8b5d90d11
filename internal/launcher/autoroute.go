package launcher

import (
	"context"
	"log/slog"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
)

// HealthChecker finds the first profile whose address answers. A nil result
// means nothing was reachable.
type HealthChecker interface {
	FindFirstReachable(ctx context.Context, item *store.Item) (*health.Reachable, error)
}

// Policy decides whether a bookmark launch moves to another profile.
type Policy struct {
	health HealthChecker
	log    *slog.Logger
}

// NewPolicy returns a Policy. A nil checker never reroutes.
func NewPolicy(h HealthChecker, log *slog.Logger) *Policy {
	if log == nil {
		log = slog.Default()
	}
	return &Policy{health: h, log: log}
}

// Decide returns the profile to launch with and whether it differs from
// requested. Only bookmarks are considered, and only when enabled. Probe
// failures keep the requested profile.
func (p *Policy) Decide(ctx context.Context, item *store.Item, requested network.Profile, enabled bool) (network.Profile, bool) {
	if !enabled || p.health == nil || item.Kind != store.KindBookmark {
		return requested, false
	}

	found, err := p.health.FindFirstReachable(ctx, item)
	if err != nil {
		p.log.Warn("auto-route probe failed, keeping requested profile",
			"item", item.Name, "profile", requested, "error", err)
		return requested, false
	}
	if found == nil || found.Profile == requested {
		return requested, false
	}

	p.log.Info("auto-route changed profile", "item", item.Name, "from", requested, "to", found.Profile)
	return found.Profile, true
}
