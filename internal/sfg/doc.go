// Package sfg implements the signal-flow-graph model the scheduling core
// operates on: operations with typed ids and ports, directed signals,
// per-port latency offsets, optional execution times, and the precedence
// level computation the schedulers consume.
//
// Ids are typed (OpID, SignalID) so that a lookup miss surfaces as an
// explicit (value, bool) or typed error instead of a silent map miss.
package sfg
