// Package trace provides the tracing subsystem for the zsem tools.
//
// Tracing tracks indexing phases, per-file processing and query handling to
// help diagnose slow runs and hangs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	zsem index --trace=- --trace-level=phase src
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Command and pass boundaries
//   - LevelDetail: Per-file events
//   - LevelDebug: Everything including per-node resolution
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI and LSP operations
//   - ScopeModule: Per-file processing
//   - ScopePass: Indexing passes (parse, scope)
//   - ScopeNode: Per-node type resolution
//
// # Context Propagation
//
// Tracers are propagated through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "parse", parentID)
//	defer span.End("")
package trace
