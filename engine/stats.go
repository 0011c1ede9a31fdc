package engine

// PeriodStats aggregates global settlement activity for one period.
type PeriodStats struct {
	Steps     uint64 `json:"steps"`
	FlushOuts uint64 `json:"flush_outs"`
	BV        uint64 `json:"bv"` // total business value recorded (weekly table only)
}

// StatsTable holds the two period-statistics tables: one keyed by day
// number, one by week number. The weekly table accumulates steps and value
// even while daily settlement is active, so emission always has weekly
// totals to pro-rate against.
type StatsTable struct {
	Daily  map[uint64]*PeriodStats `json:"daily"`
	Weekly map[uint64]*PeriodStats `json:"weekly"`
}

// NewStatsTable creates an empty statistics table.
func NewStatsTable() *StatsTable {
	return &StatsTable{
		Daily:  make(map[uint64]*PeriodStats),
		Weekly: make(map[uint64]*PeriodStats),
	}
}

// DailyFor returns the stats row for a day, creating it on first use.
func (t *StatsTable) DailyFor(day uint64) *PeriodStats {
	st, ok := t.Daily[day]
	if !ok {
		st = &PeriodStats{}
		t.Daily[day] = st
	}
	return st
}

// WeeklyFor returns the stats row for a week, creating it on first use.
func (t *StatsTable) WeeklyFor(week uint64) *PeriodStats {
	st, ok := t.Weekly[week]
	if !ok {
		st = &PeriodStats{}
		t.Weekly[week] = st
	}
	return st
}

// For returns the stats row for a period, creating it on first use.
func (t *StatsTable) For(p Period) *PeriodStats {
	if p.Weekly {
		return t.WeeklyFor(p.Num)
	}
	return t.DailyFor(p.Num)
}

// Clone returns a deep copy of the table.
func (t *StatsTable) Clone() *StatsTable {
	out := NewStatsTable()
	for k, v := range t.Daily {
		cp := *v
		out.Daily[k] = &cp
	}
	for k, v := range t.Weekly {
		cp := *v
		out.Weekly[k] = &cp
	}
	return out
}
