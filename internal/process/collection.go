package process

// Collection is a set of processes sharing one schedule period, the unit
// of conflict analysis and resource splitting.
type Collection struct {
	procs        []Process
	scheduleTime int
	cyclic       bool
}

// NewCollection creates a collection over the given processes.
func NewCollection(procs []Process, scheduleTime int, cyclic bool) *Collection {
	return &Collection{
		procs:        append([]Process(nil), procs...),
		scheduleTime: scheduleTime,
		cyclic:       cyclic,
	}
}

// ScheduleTime returns the period every member was derived under.
func (c *Collection) ScheduleTime() int { return c.scheduleTime }

// Cyclic reports whether member intervals wrap at the period.
func (c *Collection) Cyclic() bool { return c.cyclic }

// Len returns the number of member processes.
func (c *Collection) Len() int { return len(c.procs) }

// Processes returns the members in canonical order (ascending start,
// descending execution time, name).
func (c *Collection) Processes() []Process {
	out := append([]Process(nil), c.procs...)
	Sort(out)
	return out
}

// Add inserts a process into the collection.
func (c *Collection) Add(p Process) {
	c.procs = append(c.procs, p)
}

// Remove drops a process from the collection. Fails naming the process if
// it is not a member.
func (c *Collection) Remove(p Process) error {
	for i, member := range c.procs {
		if member == p {
			c.procs = append(c.procs[:i], c.procs[i+1:]...)
			return nil
		}
	}
	return &Error{Code: ErrCodeUnknownProcess, Message: "process is not a member of this collection", Process: p.Name()}
}

// Contains reports membership.
func (c *Collection) Contains(p Process) bool {
	for _, member := range c.procs {
		if member == p {
			return true
		}
	}
	return false
}

// SplitOnLength partitions the collection into processes with execution
// time at most threshold ("short"; a zero threshold selects the values
// consumed the cycle they are produced, needing no storage) and the rest.
func (c *Collection) SplitOnLength(threshold int) (short, long *Collection) {
	short = NewCollection(nil, c.scheduleTime, c.cyclic)
	long = NewCollection(nil, c.scheduleTime, c.cyclic)
	for _, p := range c.procs {
		if p.ExecutionTime() <= threshold {
			short.Add(p)
		} else {
			long.Add(p)
		}
	}
	return short, long
}

// subCollection builds a child collection sharing the parent's period.
func (c *Collection) subCollection(procs []Process) *Collection {
	return NewCollection(procs, c.scheduleTime, c.cyclic)
}

// checkLifetimes fails if any member's interval exceeds the period: such a
// process can never fit one cycle of any resource.
func (c *Collection) checkLifetimes() error {
	if c.scheduleTime <= 0 {
		return nil
	}
	for _, p := range c.procs {
		if p.ExecutionTime() > c.scheduleTime {
			return &Error{
				Code:    ErrCodeTooLong,
				Message: "execution time exceeds the schedule period",
				Process: p.Name(),
			}
		}
	}
	return nil
}

// overlaps reports whether two member intervals collide, honoring the
// period wrap for cyclic collections. Zero-length intervals never
// collide.
func (c *Collection) overlaps(a, b Process) bool {
	ea, eb := a.ExecutionTime(), b.ExecutionTime()
	if ea == 0 || eb == 0 {
		return false
	}
	sa, sb := a.StartTime(), b.StartTime()
	if !c.cyclic || c.scheduleTime <= 0 {
		return sa < sb+eb && sb < sa+ea
	}
	// Compare against the neighbor periods; lifetimes are bounded by the
	// period so one shift in each direction suffices.
	T := c.scheduleTime
	for _, shift := range []int{-T, 0, T} {
		if sa < sb+shift+eb && sb+shift < sa+ea {
			return true
		}
	}
	return false
}
