package audit

import "github.com/shopspring/decimal"

// GroupStat is the comparison population of one entry: the sum and count of
// gross values it is measured against.
type GroupStat struct {
	Sum   decimal.Decimal
	Count int
}

// Exceeds reports whether value > multiplier * mean, computed as
// value*count > multiplier*sum. An empty population never exceeds.
func (g GroupStat) Exceeds(value, multiplier decimal.Decimal) bool {
	if g.Count == 0 {
		return false
	}
	return value.Mul(decimal.NewFromInt(int64(g.Count))).GreaterThan(multiplier.Mul(g.Sum))
}

// Mean returns the population mean, or zero for an empty population.
func (g GroupStat) Mean() decimal.Decimal {
	if g.Count == 0 {
		return decimal.Zero
	}
	return g.Sum.Div(decimal.NewFromInt(int64(g.Count)))
}

// GroupMeans groups values by key and broadcasts each group's population
// back to the rows, one GroupStat per row in input order.
//
// With IncludeSelf the population is the whole group, so a group of one is
// measured against itself (only a negative value can exceed its own
// multiple). With ExcludeSelf the row's own value is removed from it and a
// group of one has no population.
func GroupMeans(keys []string, values []decimal.Decimal, policy MeanPolicy) []GroupStat {
	totals := make(map[string]GroupStat, len(keys)/4+1)
	for i, k := range keys {
		g := totals[k]
		g.Sum = g.Sum.Add(values[i])
		g.Count++
		totals[k] = g
	}

	out := make([]GroupStat, len(keys))
	for i, k := range keys {
		g := totals[k]
		switch {
		case policy == ExcludeSelf && g.Count < 2:
			out[i] = GroupStat{}
		case policy == ExcludeSelf:
			out[i] = GroupStat{Sum: g.Sum.Sub(values[i]), Count: g.Count - 1}
		default:
			out[i] = g
		}
	}
	return out
}
