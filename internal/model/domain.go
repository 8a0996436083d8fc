package model

import "fmt"

// Domain identifies one independently persisted and synced record collection.
type Domain string

const (
	DomainTimeCard Domain = "timecard"
	DomainMemo     Domain = "memo"
	DomainSchedule Domain = "schedule"
	DomainDeposit  Domain = "deposit"
)

// Domains lists every domain in sync order.
var Domains = []Domain{DomainMemo, DomainTimeCard, DomainSchedule, DomainDeposit}

// PrefKey is the preference key the domain's collection is stored under.
func (d Domain) PrefKey() string {
	switch d {
	case DomainTimeCard:
		return "time_card_list"
	case DomainMemo:
		return "memo_list"
	case DomainSchedule:
		return "schedule_list"
	case DomainDeposit:
		return "deposit_month_list"
	}
	return ""
}

// Field is the name of the single list field inside the persisted wrapper
// object and inside sync request/response payloads.
func (d Domain) Field() string {
	switch d {
	case DomainTimeCard:
		return "time_cards"
	case DomainMemo:
		return "memos"
	case DomainSchedule:
		return "schedules"
	case DomainDeposit:
		return "deposit_months"
	}
	return ""
}

// Path is the segment used in sync URLs, e.g. /api/memo/sync.
func (d Domain) Path() string {
	return string(d)
}

// ParseDomain converts user input into a Domain.
func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q (want one of memo, timecard, schedule, deposit)", s)
}
