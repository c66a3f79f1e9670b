package snapshot

import (
	"github.com/mlindgren/hwsched/internal/arch"
	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sched"
)

// ScheduleDocument renders a schedule as a canonical value tree: start
// times, signal laps, period and cyclicity.
func ScheduleDocument(s *sched.Schedule) Object {
	starts := Object{}
	for id, t := range s.StartTimes() {
		starts[string(id)] = Int(t)
	}
	laps := Object{}
	for _, sig := range s.Graph().Signals() {
		pair := sig.Source.String() + ">" + sig.Destination.String()
		laps[pair] = Int(s.Lap(sig.ID))
	}
	return Object{
		"schedule_time": Int(s.ScheduleTime()),
		"cyclic":        Bool(s.Cyclic()),
		"start_times":   starts,
		"laps":          laps,
	}
}

// ScheduleHash returns the content-addressed identity of a schedule.
func ScheduleHash(s *sched.Schedule) (string, error) {
	data, err := MarshalCanonical(ScheduleDocument(s))
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainSchedule, data), nil
}

// ArchitectureDocument renders an architecture as a canonical value tree:
// every resource with its assignment layout, plus the direct
// interconnect variables.
func ArchitectureDocument(a *arch.Architecture) Object {
	pes := Object{}
	for _, pe := range a.ProcessingElements() {
		pes[pe.Name()] = Object{
			"type":       String(pe.OpType()),
			"assignment": collectionNames(pe.Assignment()),
		}
	}
	mems := Object{}
	for _, m := range a.Memories() {
		mems[m.Name()] = Object{
			"read_ports":  Int(m.ReadPorts()),
			"write_ports": Int(m.WritePorts()),
			"total_ports": Int(m.TotalPorts()),
			"assignment":  collectionNames(m.Assignment()),
		}
	}
	doc := Object{
		"schedule_time":       Int(a.ScheduleTime()),
		"processing_elements": pes,
		"memories":            mems,
	}
	if direct := a.DirectInterconnects(); direct != nil {
		names := Array{}
		for _, p := range direct.Processes() {
			names = append(names, String(p.Name()))
		}
		doc["direct"] = names
	}
	return doc
}

// ArchitectureHash returns the content-addressed identity of an
// architecture.
func ArchitectureHash(a *arch.Architecture) (string, error) {
	data, err := MarshalCanonical(ArchitectureDocument(a))
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainArchitecture, data), nil
}

// collectionNames renders a cell or bank layout as an array of process
// name arrays, one per cell.
func collectionNames(cells []*process.Collection) Array {
	out := Array{}
	for _, cell := range cells {
		names := Array{}
		for _, p := range cell.Processes() {
			names = append(names, String(p.Name()))
		}
		out = append(out, names)
	}
	return out
}
