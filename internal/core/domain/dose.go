package domain

import (
	"strconv"
	"strings"
	"time"
)

const maxPrimaryDose = 6

// boosterLabels maps booster labels to their stored numeric labels.
// "13" is never assigned.
var boosterLabels = map[string]string{
	"refuerzo_1": "7",
	"refuerzo_2": "8",
	"refuerzo_3": "9",
	"refuerzo_4": "10",
	"refuerzo_5": "11",
	"refuerzo_6": "12",
	"refuerzo_7": "14",
}

// NormalizeDoseLabel validates a submitted dose label and returns the stored form.
// Primary doses "1".."6" are kept; boosters are stored through boosterLabels.
func NormalizeDoseLabel(label string) (string, error) {
	label = strings.ToLower(strings.TrimSpace(label))

	if stored, ok := boosterLabels[label]; ok {
		return stored, nil
	}

	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > maxPrimaryDose {
		return "", ErrInvalidDoseLabel
	}
	return strconv.Itoa(n), nil
}

// NextDueDate returns applied + intervalDays calendar days, or nil when there is no interval
func NextDueDate(applied time.Time, intervalDays int) *time.Time {
	if intervalDays <= 0 {
		return nil
	}
	next := applied.AddDate(0, 0, intervalDays)
	return &next
}
