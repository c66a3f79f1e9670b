// Package process models the time intervals a finished schedule induces:
// operator executions and memory-variable lifetimes. Collections of such
// intervals are the unit of conflict analysis, and the splitting
// strategies here (left-edge and the conflict-graph colorings) partition
// them onto bounded resources.
package process
