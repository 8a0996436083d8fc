package model

// Schedule is a calendar entry. Milestones carry a goal value.
type Schedule struct {
	ID            string `json:"id,omitempty"`
	Text          string `json:"text"`
	DayStartTime  int64  `json:"day_start_time"`
	StartingTime  int64  `json:"starting_time"`
	EndingTime    int64  `json:"ending_time"`
	IsAllDay      bool   `json:"is_all_day"`
	IsMilestone   bool   `json:"is_milestone"`
	MilestoneGoal int64  `json:"milestone_goal"`
}

// Matches compares by id when both sides have one, by every field otherwise.
func (s Schedule) Matches(other Schedule) bool {
	if s.ID != "" && other.ID != "" {
		return s.ID == other.ID
	}
	a, b := s, other
	a.ID, b.ID = "", ""
	return a == b
}
