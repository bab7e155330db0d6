// Package supervise runs a single external command under supervision:
// it streams the child's output, classifies lines into weighted progress
// via a declarative phase state machine, mediates interactive prompts,
// and persists every output byte to an append-only log.
//
// The package is organized around four collaborators:
//   - Phase / DefaultPhase — pure pattern-driven reward accounting
//   - Coordinator — subprocess stdout/stderr/stdin multiplexing
//   - Callback — the seam where tool-specific prompt semantics plug in
//   - Executor — wires the three together for one command invocation
//
// Tool-specific behavior (terraform prompt shapes, context extraction)
// lives in internal/engine/terraform.
package supervise
