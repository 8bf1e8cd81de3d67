package audit

// Flag identifies one audit signal. Values are ordered; the order is the
// display order of sheets and statistics.
type Flag int

const (
	FlagOutlier Flag = iota
	FlagExceedsTolerance
	FlagRoundAmount
	FlagMissingDescription
	FlagWeekend
	FlagKeyword

	flagCount
)

// NumFlags is the number of audit flags.
const NumFlags = int(flagCount)

var flagColumns = [NumFlags]string{
	FlagOutlier:            "10x_Media",
	FlagExceedsTolerance:   "Excede_ET",
	FlagRoundAmount:        "Redondo",
	FlagMissingDescription: "Sem_Hist",
	FlagWeekend:            "Fds",
	FlagKeyword:            "Palavra_Chave",
}

var flagNames = [NumFlags]string{
	FlagOutlier:            "outlier",
	FlagExceedsTolerance:   "exceeds-tolerance",
	FlagRoundAmount:        "round-amount",
	FlagMissingDescription: "missing-description",
	FlagWeekend:            "weekend",
	FlagKeyword:            "keyword",
}

// AllFlags returns every flag in display order.
func AllFlags() []Flag {
	out := make([]Flag, NumFlags)
	for i := range out {
		out[i] = Flag(i)
	}
	return out
}

// Valid reports whether f names a known flag.
func (f Flag) Valid() bool {
	return f >= 0 && f < flagCount
}

// Column returns the report column header for the flag.
func (f Flag) Column() string {
	if !f.Valid() {
		return ""
	}
	return flagColumns[f]
}

func (f Flag) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return flagNames[f]
}

// Flags is the set of flags raised for one entry.
type Flags [NumFlags]bool

// Get reports whether f is raised.
func (fs Flags) Get(f Flag) bool {
	if !f.Valid() {
		return false
	}
	return fs[f]
}

// Set raises or clears f.
func (fs *Flags) Set(f Flag, v bool) {
	if f.Valid() {
		fs[f] = v
	}
}

// Any reports whether at least one flag is raised.
func (fs Flags) Any() bool {
	for _, v := range fs {
		if v {
			return true
		}
	}
	return false
}
