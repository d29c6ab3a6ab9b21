package contract

import (
	"testing"
	"time"

	"github.com/dukerupert/north/internal/model"
)

var now = time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

func activeDue(d time.Duration) model.Contract {
	return model.Contract{
		ID:         "c1",
		Promise:    "Ship the draft",
		Status:     model.ContractActive,
		DeadlineAt: now.Add(d),
		UnlockAt:   now.Add(d),
	}
}

func TestLiveStatusTerminal(t *testing.T) {
	c := activeDue(48 * time.Hour)

	c.Status = model.ContractCompleted
	if got := LiveStatus(c, now); got != LabelKept {
		t.Errorf("label = %q, want %q", got, LabelKept)
	}

	c.Status = model.ContractFailed
	if got := LiveStatus(c, now); got != LabelMissed {
		t.Errorf("label = %q, want %q", got, LabelMissed)
	}
}

func TestLiveStatusAwaitingProof(t *testing.T) {
	// Awaiting proof wins over the countdown even if the deadline is far away.
	c := activeDue(48 * time.Hour)
	c.Status = model.ContractAwaitingProof
	if got := LiveStatus(c, now); got != LabelProofOverdue {
		t.Errorf("label = %q, want %q", got, LabelProofOverdue)
	}
}

func TestLiveStatusActiveWindows(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      Label
	}{
		{-time.Minute, LabelUnlockNow},
		{0, LabelUnlockNow},
		{time.Second, LabelPanicWindow},
		{2*time.Hour - time.Second, LabelPanicWindow},
		{2 * time.Hour, LabelHighPressure},
		{12*time.Hour - time.Second, LabelHighPressure},
		{12 * time.Hour, LabelOnTrack},
		{72 * time.Hour, LabelOnTrack},
	}
	for _, tt := range tests {
		if got := LiveStatus(activeDue(tt.remaining), now); got != tt.want {
			t.Errorf("remaining %v: label = %q, want %q", tt.remaining, got, tt.want)
		}
	}
}

func TestLiveStatusDoesNotMutate(t *testing.T) {
	c := activeDue(time.Hour)
	for i := 0; i < 5; i++ {
		LiveStatus(c, now.Add(time.Duration(i)*time.Hour))
	}
	if c.Status != model.ContractActive {
		t.Errorf("status = %q, want %q", c.Status, model.ContractActive)
	}
}

func TestFormatCountdown(t *testing.T) {
	deadline := now.Add(3*time.Hour + 4*time.Minute + 5*time.Second)
	if got := FormatCountdown(deadline, now); got != "03:04:05" {
		t.Errorf("countdown = %q, want %q", got, "03:04:05")
	}
}

func TestFormatCountdownWideHours(t *testing.T) {
	deadline := now.Add(123*time.Hour + 59*time.Second)
	if got := FormatCountdown(deadline, now); got != "123:00:59" {
		t.Errorf("countdown = %q, want %q", got, "123:00:59")
	}
}

func TestFormatCountdownFloor(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second, -48 * time.Hour} {
		if got := FormatCountdown(now.Add(d), now); got != "00:00:00" {
			t.Errorf("offset %v: countdown = %q, want %q", d, got, "00:00:00")
		}
	}
	// Sub-second remainders truncate down.
	if got := FormatCountdown(now.Add(900*time.Millisecond), now); got != "00:00:00" {
		t.Errorf("countdown = %q, want %q", got, "00:00:00")
	}
}
