package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDoseLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"1", "1"},
		{" 6 ", "6"},
		{"refuerzo_1", "7"},
		{"refuerzo_6", "12"},
		{"Refuerzo_7", "14"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := NormalizeDoseLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDoseLabelRejects(t *testing.T) {
	for _, label := range []string{"", "0", "7", "-1", "refuerzo_0", "refuerzo_8", "refuerzo_", "first"} {
		t.Run(label, func(t *testing.T) {
			_, err := NormalizeDoseLabel(label)
			assert.ErrorIs(t, err, ErrInvalidDoseLabel)
		})
	}
}

func TestNextDueDateAddsCalendarDays(t *testing.T) {
	next := NextDueDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-31", FormatDate(*next))
}

func TestNextDueDate(t *testing.T) {
	applied := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	next := NextDueDate(applied, 30)
	require.NotNil(t, next)
	assert.Equal(t, "2024-03-01", FormatDate(*next))

	assert.Nil(t, NextDueDate(applied, 0))
	assert.Nil(t, NextDueDate(applied, -5))
}
