package audit

// Stat is the occurrence count of one procedure.
type Stat struct {
	Key       string `json:"key"`
	Procedure string `json:"procedure"`
	Flag      Flag   `json:"-"`
	Count     int    `json:"count"`
}

// Stats holds counts in catalogue order.
type Stats []Stat

// Aggregate counts raised flags for every filtered procedure, in the order
// of procs. The full listing carries no flag and is skipped.
func Aggregate(a *Annotated, procs []Procedure) Stats {
	var counts [NumFlags]int
	for _, fs := range a.Flags {
		for f, v := range fs {
			if v {
				counts[f]++
			}
		}
	}

	out := make(Stats, 0, NumFlags)
	for _, p := range procs {
		if !p.Filtered || !p.Flag.Valid() {
			continue
		}
		out = append(out, Stat{
			Key:       p.Key,
			Procedure: p.Display,
			Flag:      p.Flag,
			Count:     counts[p.Flag],
		})
	}
	return out
}

// Map returns counts keyed by display name.
func (s Stats) Map() map[string]int {
	m := make(map[string]int, len(s))
	for _, st := range s {
		m[st.Procedure] = st.Count
	}
	return m
}

// Get returns the count for a display name.
func (s Stats) Get(display string) (int, bool) {
	for _, st := range s {
		if st.Procedure == display {
			return st.Count, true
		}
	}
	return 0, false
}

// Total returns the sum of all counts. Entries raising several flags are
// counted once per flag.
func (s Stats) Total() int {
	n := 0
	for _, st := range s {
		n += st.Count
	}
	return n
}
