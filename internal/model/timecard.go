package model

// TimeCardDay is the attendance record of one calendar day.
// DayStartTime is unique within a collection.
type TimeCardDay struct {
	DayStartTime   int64  `json:"day_start_time"`
	LatestTimeCard int64  `json:"latest_time_card"`
	LatestTimeRun  *int64 `json:"latest_time_run,omitempty"`
}

// TimeCardState is the daily clock-in state.
type TimeCardState int

const (
	NotClockedIn TimeCardState = iota
	ClockedIn
	ClockedOut
)

func (s TimeCardState) String() string {
	switch s {
	case ClockedIn:
		return "clocked in"
	case ClockedOut:
		return "clocked out"
	}
	return "not clocked in"
}

// State derives the clock-in state of the day. A card pressed after the last
// run counts as clocked in again.
func (d *TimeCardDay) State() TimeCardState {
	if d == nil {
		return NotClockedIn
	}
	if d.LatestTimeRun == nil || *d.LatestTimeRun < d.LatestTimeCard {
		return ClockedIn
	}
	return ClockedOut
}

// WorkedMillis is the span between the latest card and the latest run, or 0
// while still clocked in.
func (d TimeCardDay) WorkedMillis() int64 {
	if d.LatestTimeRun == nil || *d.LatestTimeRun < d.LatestTimeCard {
		return 0
	}
	return *d.LatestTimeRun - d.LatestTimeCard
}
