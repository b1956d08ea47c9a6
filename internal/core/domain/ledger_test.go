package domain_test

import (
	"testing"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestLedger_State(t *testing.T) {
	tests := []struct {
		name   string
		ledger domain.Ledger
		want   domain.LedgerState
	}{
		{
			name:   "unposted",
			ledger: domain.Ledger{Posted: false, Locked: false},
			want:   domain.StateUnposted,
		},
		{
			name:   "posted",
			ledger: domain.Ledger{Posted: true, Locked: false},
			want:   domain.StatePosted,
		},
		{
			name:   "posted and locked",
			ledger: domain.Ledger{Posted: true, Locked: true},
			want:   domain.StatePostedLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ledger.State())
		})
	}
}

func TestLedger_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		posted    bool
		locked    bool
		canPost   bool
		canUnpost bool
		canLock   bool
		canUnlock bool
		canDelete bool
	}{
		{
			name:      "unposted ledger",
			posted:    false,
			locked:    false,
			canPost:   true,
			canUnpost: false,
			canLock:   false,
			canUnlock: false,
			canDelete: true,
		},
		{
			name:      "posted ledger",
			posted:    true,
			locked:    false,
			canPost:   false,
			canUnpost: true,
			canLock:   true,
			canUnlock: false,
			canDelete: false,
		},
		{
			name:      "posted and locked ledger",
			posted:    true,
			locked:    true,
			canPost:   false,
			canUnpost: false,
			canLock:   false,
			canUnlock: true,
			canDelete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := domain.Ledger{Posted: tt.posted, Locked: tt.locked}
			assert.Equal(t, tt.canPost, ledger.CanPost(), "CanPost")
			assert.Equal(t, tt.canUnpost, ledger.CanUnpost(), "CanUnpost")
			assert.Equal(t, tt.canLock, ledger.CanLock(), "CanLock")
			assert.Equal(t, tt.canUnlock, ledger.CanUnlock(), "CanUnlock")
			assert.Equal(t, tt.canDelete, ledger.CanDelete(), "CanDelete")
		})
	}
}

func TestLedger_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		ledger      domain.Ledger
		apply       func(l *domain.Ledger) bool
		wantApplied bool
		wantPosted  bool
		wantLocked  bool
	}{
		{
			name:        "post an unposted ledger",
			ledger:      domain.Ledger{},
			apply:       (*domain.Ledger).Post,
			wantApplied: true,
			wantPosted:  true,
		},
		{
			name:        "post an already posted ledger is a no-op",
			ledger:      domain.Ledger{Posted: true},
			apply:       (*domain.Ledger).Post,
			wantApplied: false,
			wantPosted:  true,
		},
		{
			name:        "unpost a posted ledger",
			ledger:      domain.Ledger{Posted: true},
			apply:       (*domain.Ledger).Unpost,
			wantApplied: true,
			wantPosted:  false,
		},
		{
			name:        "unpost an unposted ledger is a no-op",
			ledger:      domain.Ledger{},
			apply:       (*domain.Ledger).Unpost,
			wantApplied: false,
			wantPosted:  false,
		},
		{
			name:        "unpost a locked ledger is a no-op",
			ledger:      domain.Ledger{Posted: true, Locked: true},
			apply:       (*domain.Ledger).Unpost,
			wantApplied: false,
			wantPosted:  true,
			wantLocked:  true,
		},
		{
			name:        "lock a posted ledger",
			ledger:      domain.Ledger{Posted: true},
			apply:       (*domain.Ledger).Lock,
			wantApplied: true,
			wantPosted:  true,
			wantLocked:  true,
		},
		{
			name:        "lock an unposted ledger is a no-op",
			ledger:      domain.Ledger{},
			apply:       (*domain.Ledger).Lock,
			wantApplied: false,
		},
		{
			name:        "lock an already locked ledger is a no-op",
			ledger:      domain.Ledger{Posted: true, Locked: true},
			apply:       (*domain.Ledger).Lock,
			wantApplied: false,
			wantPosted:  true,
			wantLocked:  true,
		},
		{
			name:        "unlock a locked ledger",
			ledger:      domain.Ledger{Posted: true, Locked: true},
			apply:       (*domain.Ledger).Unlock,
			wantApplied: true,
			wantPosted:  true,
			wantLocked:  false,
		},
		{
			name:        "unlock an unlocked ledger is a no-op",
			ledger:      domain.Ledger{Posted: true},
			apply:       (*domain.Ledger).Unlock,
			wantApplied: false,
			wantPosted:  true,
			wantLocked:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied := tt.apply(&tt.ledger)
			assert.Equal(t, tt.wantApplied, applied, "applied")
			assert.Equal(t, tt.wantPosted, tt.ledger.Posted, "posted")
			assert.Equal(t, tt.wantLocked, tt.ledger.Locked, "locked")
		})
	}
}

// Locked may only ever be true while posted. Walk every transition from every
// reachable flag combination and check the invariant survives.
func TestLedger_LockedImpliesPosted(t *testing.T) {
	states := []domain.Ledger{
		{},
		{Posted: true},
		{Posted: true, Locked: true},
	}
	transitions := []func(l *domain.Ledger) bool{
		(*domain.Ledger).Post,
		(*domain.Ledger).Unpost,
		(*domain.Ledger).Lock,
		(*domain.Ledger).Unlock,
	}

	for _, start := range states {
		for _, apply := range transitions {
			ledger := start
			apply(&ledger)
			if ledger.Locked {
				assert.True(t, ledger.Posted, "locked ledger must be posted (start posted=%t locked=%t)", start.Posted, start.Locked)
			}
		}
	}
}

func TestLedger_PostThenLockRoundTrip(t *testing.T) {
	ledger := domain.Ledger{}

	assert.True(t, ledger.Post())
	assert.True(t, ledger.CanLock())
	assert.True(t, ledger.Lock())
	assert.Equal(t, domain.StatePostedLocked, ledger.State())

	// Locked blocks unposting until unlocked again.
	assert.False(t, ledger.Unpost())
	assert.True(t, ledger.Unlock())
	assert.True(t, ledger.Unpost())
	assert.Equal(t, domain.StateUnposted, ledger.State())
	assert.True(t, ledger.CanDelete())
}
