package model

// Memo is a note or a todo item.
type Memo struct {
	ID             string  `json:"id,omitempty"`
	Text           string  `json:"text"`
	IsTodo         bool    `json:"is_todo"`
	IsTodoFinished bool    `json:"is_todo_finished"`
	IsPin          bool    `json:"is_pin"`
	CreateTime     int64   `json:"create_time"`
	ModifyTime     int64   `json:"modify_time"`
	Group          *string `json:"group,omitempty"`
}

// GroupName returns the group or "" when the memo has none.
func (m Memo) GroupName() string {
	if m.Group == nil {
		return ""
	}
	return *m.Group
}

// Matches reports whether m identifies the same record as other. Records with
// an id compare by id; records without one compare by text, todo flag, pin,
// create/modify time and group. The finished flag is not part of identity.
func (m Memo) Matches(other Memo) bool {
	if m.ID != "" && other.ID != "" {
		return m.ID == other.ID
	}
	return m.Text == other.Text &&
		m.IsTodo == other.IsTodo &&
		m.IsPin == other.IsPin &&
		m.CreateTime == other.CreateTime &&
		m.ModifyTime == other.ModifyTime &&
		m.GroupName() == other.GroupName() &&
		(m.Group == nil) == (other.Group == nil)
}
