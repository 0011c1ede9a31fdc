package engine

// Calendar constants in seconds. A month is the mean Gregorian month, used
// only for bonus-pool bookkeeping.
const (
	DaySeconds   = 86_400
	WeekSeconds  = 604_800
	MonthSeconds = 2_629_800
)

// DayOf returns the day number for a unix timestamp.
func DayOf(t int64) uint64 { return uint64(t) / DaySeconds }

// WeekOf returns the settlement-week number for a unix timestamp.
func WeekOf(t int64) uint64 { return uint64(t) / WeekSeconds }

// MonthOf returns the month number for a unix timestamp.
func MonthOf(t int64) uint64 { return uint64(t) / MonthSeconds }

// Period identifies one settlement period: a day while daily mode is
// active, a 7-day block afterwards. Periods from different granularities
// are ordered by start time, never by raw number.
type Period struct {
	Weekly bool   `json:"weekly"`
	Num    uint64 `json:"num"`
}

// Start returns the period's first second.
func (p Period) Start() int64 {
	if p.Weekly {
		return int64(p.Num) * WeekSeconds
	}
	return int64(p.Num) * DaySeconds
}

// End returns the first second after the period.
func (p Period) End() int64 {
	if p.Weekly {
		return int64(p.Num+1) * WeekSeconds
	}
	return int64(p.Num+1) * DaySeconds
}

// Before reports whether p starts before other. Start-time ordering stays
// correct across the daily/weekly switch.
func (p Period) Before(other Period) bool {
	return p.Start() < other.Start()
}
