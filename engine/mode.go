package engine

// ModeState tracks the settlement granularity. The switch from daily to
// weekly settlement is one-way: once WeeklyAt is set it is never cleared.
type ModeState struct {
	// WeeklyAt is the unix time from which periods are interpreted as
	// 7-day blocks. 0 means daily settlement is still active.
	WeeklyAt int64 `json:"weekly_at"`

	// SwitchedAt records when the flush-out trigger fired.
	SwitchedAt int64 `json:"switched_at"`
}

// WeeklyActive reports whether weekly settlement applies at time t.
func (m *ModeState) WeeklyActive(t int64) bool {
	return m.WeeklyAt != 0 && t >= m.WeeklyAt
}

// PeriodOf maps a timestamp to its settlement period under this mode.
func (m *ModeState) PeriodOf(t int64) Period {
	if m.WeeklyActive(t) {
		return Period{Weekly: true, Num: WeekOf(t)}
	}
	return Period{Weekly: false, Num: DayOf(t)}
}

// Switch performs the one-way change to weekly settlement, effective from
// the first day boundary after now. It fails if already switched.
func (m *ModeState) Switch(now int64) error {
	if m.WeeklyAt != 0 {
		return ErrModeAlreadyWeekly
	}
	m.SwitchedAt = now
	m.WeeklyAt = int64(DayOf(now)+1) * DaySeconds
	return nil
}

// Clone returns a copy of the mode state.
func (m *ModeState) Clone() *ModeState {
	cp := *m
	return &cp
}
