// Package finalize reclaims native resources whose Go owners were
// garbage collected.
//
// Explicit Release remains the primary lifecycle; the coordinator is
// the safety net behind it. A constructor schedules the external object
// against its Go owner:
//
//	coord.AutoRelease(owner, h)
//
// and when the owner becomes unreachable the handle is released on a
// dedicated reclaim goroutine, never on the collector's own path. An
// object released explicitly first makes the later reclaim a no-op.
package finalize
