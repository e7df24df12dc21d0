package rt

import (
	"context"

	"go.uber.org/zap"
)

// Poll runs the top-level dispatch loop to quiescence (spec §4.4). It
// drains every mailbox, executes each queued delivery against its
// receiver's store, and repeats until a drain pass is observed to start
// with zero pending deliveries. Handlers invoked during a pass may call
// send_message, which only enqueues (never dispatches, spec §9 "No
// reentrancy") — that fresh work is picked up on the next pass, never
// interleaved with the handler that produced it (spec §5).
func (r *Rt) Poll(ctx context.Context) error {
	for {
		if r.mbx.pendingCount() == 0 {
			return nil
		}

		snapshot := r.mbx.drain()
		for addr, box := range snapshot {
			if addr == 0 || len(box) == 0 {
				continue
			}
			actor, ok := r.table.get(Address(addr))
			if !ok {
				// Actor was destroyed between enqueue and drain; its
				// queued work is simply lost, consistent with at-most-once
				// delivery semantics.
				continue
			}
			r.dispatchActor(ctx, actor, box)
		}
	}
}

// dispatchActor runs every queued handler invocation for one actor's
// drained mailbox. Messages to non-existent handlers are dropped entirely
// (spec §4.4 step 4); a handler runtime error is logged and does not halt
// the loop or the remaining tuples for that same handler (spec §4.4 step
// 5, §7).
func (r *Rt) dispatchActor(ctx context.Context, actor *Actor, box mailbox) {
	for handlerName, deliveries := range box {
		if _, ok := actor.abi[handlerName]; !ok {
			r.log.Debug("poll: dropping queue for missing handler",
				zap.Uint32("actor", uint32(actor.addr)), zap.String("handler", handlerName))
			continue
		}
		for _, d := range deliveries {
			if _, err := actor.call(ctx, handlerName, d.args); err != nil {
				r.log.Warn("poll: handler invocation failed",
					zap.String("handler", handlerName),
					zap.Uint32("actor", uint32(actor.addr)),
					zap.Error(err))
			}
		}
	}
}
