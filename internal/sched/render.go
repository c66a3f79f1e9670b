package sched

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// Render draws the schedule as a text Gantt chart, one row per scheduled
// operation. Execution spans are marked with '#', latency-only spans with
// '-', and the row is annotated with the start time. Rows follow y-position
// hints, then insertion order.
func (s *Schedule) Render() string {
	type row struct {
		id  sfg.OpID
		y   int
		seq int
	}
	rows := make([]row, 0, len(s.startTimes))
	for i, op := range s.graph.Operations() {
		if _, ok := s.startTimes[op.ID()]; !ok {
			continue
		}
		rows = append(rows, row{id: op.ID(), y: s.YPosition(op.ID()), seq: i})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].y != rows[j].y {
			return rows[i].y < rows[j].y
		}
		return rows[i].seq < rows[j].seq
	})

	width := 0
	for _, r := range rows {
		if n := len(string(r.id)); n > width {
			width = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s |", width, "t")
	for t := 0; t < s.scheduleTime; t++ {
		fmt.Fprintf(&b, "%d", t%10)
	}
	b.WriteString("|\n")
	for _, r := range rows {
		op, _ := s.graph.Op(r.id)
		start := s.startTimes[r.id]
		lat, err := s.opLatency(op)
		if err != nil {
			lat = 0
		}
		exec, hasExec := op.ExecutionTime()
		if !hasExec {
			exec = lat
		}
		cells := make([]byte, s.scheduleTime)
		for i := range cells {
			cells[i] = '.'
		}
		mark(cells, start, lat, '-', s.cyclic)
		mark(cells, start, exec, '#', s.cyclic)
		fmt.Fprintf(&b, "%*s |%s| start=%d\n", width, r.id, cells, start)
	}
	return b.String()
}

// mark fills span cells starting at start, wrapping when cyclic.
func mark(cells []byte, start, span int, c byte, cyclic bool) {
	if len(cells) == 0 {
		return
	}
	if span == 0 {
		span = 1 // zero-length spans still show where the op sits
	}
	for i := 0; i < span; i++ {
		t := start + i
		if t >= len(cells) {
			if !cyclic {
				break
			}
			t %= len(cells)
		}
		cells[t] = c
	}
}
