package rt

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Start runs the fixed bootstrap spawn sequence (spec §4.6, §6): the
// twelve platform actors in order, each spawned from the host (spawner =
// HostAddress), followed by a display_login impulse to the display
// manager. Any spawn failure here is fatal, per spec §7's bootstrap-error
// propagation policy — the caller should treat a non-nil error as reason to
// abort startup entirely.
func (r *Rt) Start(ctx context.Context, modules ModuleSource) error {
	for _, entry := range bootstrapOrder {
		bytes, err := modules.ModuleBytes(entry.name)
		if err != nil {
			return fmt.Errorf("start: loading module bytes for %q: %w", entry.name, err)
		}

		addr, err := r.Spawn(ctx, HostAddress, bytes, entry.privileged)
		if err != nil {
			return fmt.Errorf("start: spawning %q: %w", entry.name, err)
		}
		if addr != entry.addr {
			// The bootstrap sequence only produces valid guest-side
			// well-known-address constants if nothing else raced to spawn
			// an actor first; Start must be the first thing called against
			// a fresh Rt.
			return fmt.Errorf("start: %q landed at address %d, expected well-known address %d; Start must run against a freshly constructed Rt before any other Spawn", entry.name, addr, entry.addr)
		}
	}

	r.log.Info("bootstrap complete, emitting display_login", zap.Uint32("target", uint32(DisplayManager)))
	return r.Impulse(ctx, HostAddress, DisplayManager, "display_login", nil)
}
