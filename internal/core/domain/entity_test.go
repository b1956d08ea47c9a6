package domain_test

import (
	"testing"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEntity_IsClosedFor(t *testing.T) {
	closing := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		entity domain.Entity
		date   time.Time
		want   bool
	}{
		{
			name:   "no closing date set",
			entity: domain.Entity{},
			date:   time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			want:   false,
		},
		{
			name:   "date before closing date",
			entity: domain.Entity{LastClosingDate: timePtr(closing)},
			date:   time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			want:   true,
		},
		{
			name:   "date equal to closing date",
			entity: domain.Entity{LastClosingDate: timePtr(closing)},
			date:   closing,
			want:   true,
		},
		{
			name:   "date after closing date",
			entity: domain.Entity{LastClosingDate: timePtr(closing)},
			date:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.IsClosedFor(tt.date))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
