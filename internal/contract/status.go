package contract

import (
	"fmt"
	"time"

	"github.com/dukerupert/north/internal/model"
)

// Label is the live, display-only state of a contract. It is derived from the
// persisted status and the current time and is never stored.
type Label string

const (
	LabelKept         Label = "Kept"
	LabelMissed       Label = "Missed"
	LabelProofOverdue Label = "Proof overdue"
	LabelUnlockNow    Label = "Unlock now"
	LabelPanicWindow  Label = "Panic window"
	LabelHighPressure Label = "High pressure"
	LabelOnTrack      Label = "On track"
)

const (
	panicWindow        = 2 * time.Hour
	highPressureWindow = 12 * time.Hour
)

// LiveStatus computes the urgency label for a contract at now.
func LiveStatus(c model.Contract, now time.Time) Label {
	switch c.Status {
	case model.ContractCompleted:
		return LabelKept
	case model.ContractFailed:
		return LabelMissed
	case model.ContractAwaitingProof:
		return LabelProofOverdue
	}

	remaining := c.DeadlineAt.Sub(now)
	switch {
	case remaining <= 0:
		return LabelUnlockNow
	case remaining < panicWindow:
		return LabelPanicWindow
	case remaining < highPressureWindow:
		return LabelHighPressure
	default:
		return LabelOnTrack
	}
}

// FormatCountdown renders the time left until deadline as HH:MM:SS. Hours are
// at least two digits and grow past 99. Past deadlines render as 00:00:00.
func FormatCountdown(deadline, now time.Time) string {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return "00:00:00"
	}
	total := int64(remaining / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
