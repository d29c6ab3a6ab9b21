package contract

import (
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/north/internal/model"
)

var (
	ErrPromiseRequired   = errors.New("promise is required")
	ErrDeadlineRequired  = errors.New("deadline is required")
	ErrProofRequired     = errors.New("proof text or file is required")
	ErrInvalidTransition = errors.New("invalid contract transition")
)

// Draft holds the user-supplied fields of a new contract.
type Draft struct {
	Promise         string                        `json:"promise"`
	DeadlineAt      time.Time                     `json:"deadline_at"`
	UnlockAt        time.Time                     `json:"unlock_at"`
	VoiceURI        string                        `json:"voice_uri"`
	VoiceDurationMs int64                         `json:"voice_duration_ms"`
	Contacts        []model.AccountabilityContact `json:"accountability_contacts"`
	SharedToCircle  bool                          `json:"shared_to_circle"`
}

// seededReactions are shown on contracts shared to a circle so the card
// doesn't start empty.
var seededReactions = []model.Reaction{
	{Emoji: "🔥", Count: 2},
	{Emoji: "👏", Count: 1},
}

// New builds an active contract from a draft. newID is used for the contract
// and for any contact without an id.
func New(d Draft, now time.Time, newID func() string) (model.Contract, error) {
	promise := strings.TrimSpace(d.Promise)
	if promise == "" {
		return model.Contract{}, ErrPromiseRequired
	}
	if d.DeadlineAt.IsZero() {
		return model.Contract{}, ErrDeadlineRequired
	}
	unlockAt := d.UnlockAt
	if unlockAt.IsZero() {
		unlockAt = d.DeadlineAt
	}

	// Contact ids key the stored rows, so blanks and repeats are reissued.
	contacts := make([]model.AccountabilityContact, 0, len(d.Contacts))
	seen := make(map[string]bool, len(d.Contacts))
	for _, ct := range d.Contacts {
		for ct.ID == "" || seen[ct.ID] {
			ct.ID = newID()
		}
		seen[ct.ID] = true
		contacts = append(contacts, ct)
	}

	reactions := []model.Reaction{}
	if d.SharedToCircle {
		reactions = append(reactions, seededReactions...)
	}

	return model.Contract{
		ID:                     newID(),
		Promise:                promise,
		CreatedAt:              now,
		DeadlineAt:             d.DeadlineAt,
		UnlockAt:               unlockAt,
		Status:                 model.ContractActive,
		VoiceURI:               d.VoiceURI,
		VoiceDurationMs:        d.VoiceDurationMs,
		AccountabilityContacts: contacts,
		SharedToCircle:         d.SharedToCircle,
		SocialReactions:        reactions,
	}, nil
}

// Promote moves an active contract to awaiting_proof once its unlock time has
// elapsed. It reports whether the contract changed and is a no-op otherwise.
func Promote(c *model.Contract, now time.Time) bool {
	if c.Status != model.ContractActive || now.Before(c.UnlockAt) {
		return false
	}
	c.Status = model.ContractAwaitingProof
	return true
}

// Sweep promotes every eligible contract in place and returns the ids that
// changed. Running it again with the same now changes nothing.
func Sweep(contracts []model.Contract, now time.Time) []string {
	var promoted []string
	for i := range contracts {
		if Promote(&contracts[i], now) {
			promoted = append(promoted, contracts[i].ID)
		}
	}
	return promoted
}

// SubmitProof completes a contract that is awaiting proof. An active contract
// whose unlock time already passed is promoted first, so a proof submitted
// between sweeps isn't rejected. On error the contract is left untouched.
func SubmitProof(c *model.Contract, proofText, proofFileName string, now time.Time) error {
	proofText = strings.TrimSpace(proofText)
	proofFileName = strings.TrimSpace(proofFileName)
	if proofText == "" && proofFileName == "" {
		return ErrProofRequired
	}
	if c.Status == model.ContractActive && now.Before(c.UnlockAt) {
		return ErrInvalidTransition
	}
	Promote(c, now)
	if c.Status != model.ContractAwaitingProof {
		return ErrInvalidTransition
	}

	c.Status = model.ContractCompleted
	c.ProofText = proofText
	c.ProofFileName = proofFileName
	c.ProofSubmittedAt = &now
	return nil
}

// Fail marks a non-terminal contract as missed.
func Fail(c *model.Contract) error {
	if c.Status.Terminal() {
		return ErrInvalidTransition
	}
	c.Status = model.ContractFailed
	return nil
}

// MarkAccountabilitySent records that an accountability message was issued.
// Status is never changed. Failed contracts are allowed since the message
// exists for missed promises; kept ones are not. This is stricter than a
// bare ping counter since a kept promise leaves nobody to hold accountable.
func MarkAccountabilitySent(c *model.Contract, now time.Time) error {
	if c.Status == model.ContractCompleted {
		return ErrInvalidTransition
	}
	c.AccountabilityPings++
	c.AccountabilitySentAt = &now
	return nil
}

// React increments the count for emoji, appending it if new.
func React(c *model.Contract, emoji string) {
	for i := range c.SocialReactions {
		if c.SocialReactions[i].Emoji == emoji {
			c.SocialReactions[i].Count++
			return
		}
	}
	c.SocialReactions = append(c.SocialReactions, model.Reaction{Emoji: emoji, Count: 1})
}
