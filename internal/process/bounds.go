package process

// ReadPortsBound returns the maximum number of simultaneous reads at any
// cycle of the period: no memory built over this collection can have
// fewer read ports.
func (c *Collection) ReadPortsBound() int {
	reads := make(map[int]int)
	for _, p := range c.procs {
		v, ok := p.(accessor)
		if !ok {
			continue
		}
		for _, r := range c.readCycles(v) {
			reads[r]++
		}
	}
	return maxCount(reads)
}

// WritePortsBound returns the maximum number of simultaneous writes at
// any cycle of the period.
func (c *Collection) WritePortsBound() int {
	writes := make(map[int]int)
	for _, p := range c.procs {
		v, ok := p.(accessor)
		if !ok {
			continue
		}
		writes[c.writeCycle(v)]++
	}
	return maxCount(writes)
}

// TotalPortsBound returns the maximum number of combined accesses at any
// cycle of the period.
func (c *Collection) TotalPortsBound() int {
	accesses := make(map[int]int)
	for _, p := range c.procs {
		v, ok := p.(accessor)
		if !ok {
			continue
		}
		accesses[c.writeCycle(v)]++
		for _, r := range c.readCycles(v) {
			accesses[r]++
		}
	}
	return maxCount(accesses)
}

// ProcessingElementBound returns the maximum number of concurrently live
// processes at any instant: the minimum count of unit-concurrency
// resources the collection can be packed onto.
func (c *Collection) ProcessingElementBound() int {
	if c.scheduleTime <= 0 {
		return c.concurrencyUnwrapped()
	}
	max := 0
	for t := 0; t < c.scheduleTime; t++ {
		live := 0
		for _, p := range c.procs {
			if c.coversInstant(p, t) {
				live++
			}
		}
		if live > max {
			max = live
		}
	}
	return max
}

// coversInstant reports whether p's execution interval covers instant t of
// the period.
func (c *Collection) coversInstant(p Process, t int) bool {
	e := p.ExecutionTime()
	if e == 0 {
		return false
	}
	s := c.accessCycle(p.StartTime())
	end := s + e
	if end <= c.scheduleTime || !c.cyclic {
		return s <= t && t < end
	}
	// Wrapping interval: covers [s, T) and [0, end-T).
	return t >= s || t < end-c.scheduleTime
}

// concurrencyUnwrapped sweeps interval endpoints when no period is known.
func (c *Collection) concurrencyUnwrapped() int {
	max := 0
	for _, p := range c.procs {
		if p.ExecutionTime() == 0 {
			continue
		}
		t := p.StartTime()
		live := 0
		for _, q := range c.procs {
			if q.ExecutionTime() == 0 {
				continue
			}
			if q.StartTime() <= t && t < q.StartTime()+q.ExecutionTime() {
				live++
			}
		}
		if live > max {
			max = live
		}
	}
	return max
}

func maxCount(m map[int]int) int {
	max := 0
	for _, n := range m {
		if n > max {
			max = n
		}
	}
	return max
}
