// Package sched owns the Schedule - the mapping from operation to start
// time, per-signal lap counts and the schedule period - together with the
// scheduler strategy family that populates it (ASAP, ALAP, the
// list-scheduling variants and an exact branch-and-bound scheduler).
//
// A Schedule always operates on a private copy of the caller's graph:
// scheduling ends by folding feedback delays into lap-annotated direct
// edges, a destructive rewrite that must never touch a graph the caller
// still references.
//
// All cyclic time arithmetic goes through floorMod/floorDiv. Go's % is a
// truncated modulo and returns negative results for negative operands,
// which silently corrupts lap bookkeeping for backward moves.
package sched
