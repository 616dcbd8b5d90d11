package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/store"
)

// Source is what the collector reads gauges from.
type Source interface {
	ListGroups() ([]*store.Group, error)
	ListItems(groupID uuid.UUID) ([]*store.Item, error)
}

// VaultState reports whether the vault is unlocked.
type VaultState interface {
	IsUnlocked() bool
}

// StartCollector periodically refreshes the gauge metrics until ctx is done.
func StartCollector(ctx context.Context, src Source, vault VaultState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	Collect(src, vault)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Collect(src, vault)
		}
	}
}

// Collect refreshes the gauge metrics once.
func Collect(src Source, vault VaultState) {
	if groups, err := src.ListGroups(); err == nil {
		GroupsTotal.Set(float64(len(groups)))
	} else {
		slog.Debug("failed to count groups for metrics", "error", err)
	}

	if items, err := src.ListItems(uuid.Nil); err == nil {
		counts := map[store.ItemKind]int{
			store.KindBookmark: 0,
			store.KindSSH:      0,
			store.KindApp:      0,
			store.KindPassword: 0,
		}
		for _, it := range items {
			counts[it.Kind]++
		}
		for kind, n := range counts {
			ItemsTotal.WithLabelValues(string(kind)).Set(float64(n))
		}
	} else {
		slog.Debug("failed to count items for metrics", "error", err)
	}

	if vault != nil {
		if vault.IsUnlocked() {
			VaultUnlocked.Set(1)
		} else {
			VaultUnlocked.Set(0)
		}
	}
}
