package cmd

import (
	"testing"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/syncer"
)

func TestSyncFailureLine(t *testing.T) {
	tests := []struct {
		domain model.Domain
		status syncer.Status
		want   string
	}{
		{model.DomainMemo, syncer.Status{}, ""},
		{model.DomainMemo, syncer.Status{LastError: "stale"}, ""},
		{model.DomainDeposit, syncer.Status{Failed: true, LastError: "maintenance"}, "Sync of deposit failed: maintenance"},
		{model.DomainTimeCard, syncer.Status{Failed: true}, "Sync of timecard failed: unknown error"},
	}
	for _, tt := range tests {
		if got := syncFailureLine(tt.domain, tt.status); got != tt.want {
			t.Errorf("syncFailureLine(%s, %+v) = %q, want %q", tt.domain, tt.status, got, tt.want)
		}
	}
}
