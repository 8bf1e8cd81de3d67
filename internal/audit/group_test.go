package audit

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGroupMeans(t *testing.T) {
	keys := []string{"A", "B", "A", "C", "A"}
	values := []decimal.Decimal{dec("10"), dec("5"), dec("20"), dec("7"), dec("30")}

	t.Run("include self", func(t *testing.T) {
		got := GroupMeans(keys, values, IncludeSelf)
		want := []GroupStat{
			{Sum: dec("60"), Count: 3},
			{Sum: dec("5"), Count: 1},
			{Sum: dec("60"), Count: 3},
			{Sum: dec("7"), Count: 1},
			{Sum: dec("60"), Count: 3},
		}
		assertGroupStats(t, got, want)
	})

	t.Run("exclude self", func(t *testing.T) {
		got := GroupMeans(keys, values, ExcludeSelf)
		want := []GroupStat{
			{Sum: dec("50"), Count: 2},
			{},
			{Sum: dec("40"), Count: 2},
			{},
			{Sum: dec("30"), Count: 2},
		}
		assertGroupStats(t, got, want)
	})
}

func assertGroupStats(t *testing.T, got, want []GroupStat) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Count != want[i].Count || !got[i].Sum.Equal(want[i].Sum) {
			t.Errorf("row %d = {%s %d}, want {%s %d}", i, got[i].Sum, got[i].Count, want[i].Sum, want[i].Count)
		}
	}
}

func TestGroupStat_Exceeds(t *testing.T) {
	ten := dec("10")
	tests := []struct {
		name  string
		stat  GroupStat
		value string
		want  bool
	}{
		{name: "above", stat: GroupStat{Sum: dec("100"), Count: 25}, value: "500", want: true},
		{name: "exactly at threshold", stat: GroupStat{Sum: dec("100"), Count: 10}, value: "100", want: false},
		{name: "below", stat: GroupStat{Sum: dec("100"), Count: 10}, value: "99.99", want: false},
		{name: "empty population", stat: GroupStat{}, value: "1000", want: false},
		{name: "repeating mean stays exact", stat: GroupStat{Sum: dec("10"), Count: 3}, value: "33.34", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stat.Exceeds(dec(tt.value), ten); got != tt.want {
				t.Errorf("Exceeds(%s) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGroupStat_Mean(t *testing.T) {
	if got := (GroupStat{Sum: dec("60"), Count: 3}).Mean(); !got.Equal(dec("20")) {
		t.Errorf("Mean = %s, want 20", got)
	}
	if got := (GroupStat{}).Mean(); !got.IsZero() {
		t.Errorf("empty Mean = %s, want 0", got)
	}
}
