package model

import "time"

type ContractStatus string

const (
	ContractActive        ContractStatus = "active"
	ContractAwaitingProof ContractStatus = "awaiting_proof"
	ContractCompleted     ContractStatus = "completed"
	ContractFailed        ContractStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s ContractStatus) Terminal() bool {
	return s == ContractCompleted || s == ContractFailed
}

type ContactChannel string

const (
	ChannelSMS   ContactChannel = "sms"
	ChannelEmail ContactChannel = "email"
)

type AccountabilityContact struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Channel ContactChannel `json:"channel"`
	Value   string         `json:"value"`
}

type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Contract is a future-self promise with a deadline and a proof requirement.
type Contract struct {
	ID                     string                  `json:"id"`
	Promise                string                  `json:"promise"`
	CreatedAt              time.Time               `json:"created_at"`
	DeadlineAt             time.Time               `json:"deadline_at"`
	UnlockAt               time.Time               `json:"unlock_at"`
	Status                 ContractStatus          `json:"status"`
	VoiceURI               string                  `json:"voice_uri,omitempty"`
	VoiceDurationMs        int64                   `json:"voice_duration_ms,omitempty"`
	ProofText              string                  `json:"proof_text,omitempty"`
	ProofFileName          string                  `json:"proof_file_name,omitempty"`
	ProofSubmittedAt       *time.Time              `json:"proof_submitted_at,omitempty"`
	AccountabilityContacts []AccountabilityContact `json:"accountability_contacts"`
	AccountabilitySentAt   *time.Time              `json:"accountability_sent_at,omitempty"`
	AccountabilityPings    int                     `json:"accountability_pings"`
	SharedToCircle         bool                    `json:"shared_to_circle"`
	SocialReactions        []Reaction              `json:"social_reactions"`
}

// Clone returns a deep copy so callers can't mutate engine-owned slices.
func (c Contract) Clone() Contract {
	out := c
	out.AccountabilityContacts = append([]AccountabilityContact(nil), c.AccountabilityContacts...)
	out.SocialReactions = append([]Reaction(nil), c.SocialReactions...)
	if c.ProofSubmittedAt != nil {
		t := *c.ProofSubmittedAt
		out.ProofSubmittedAt = &t
	}
	if c.AccountabilitySentAt != nil {
		t := *c.AccountabilitySentAt
		out.AccountabilitySentAt = &t
	}
	return out
}

// RoomCondition is a coarse mood indicator driven by recent contract outcomes.
type RoomCondition string

const (
	RoomThriving RoomCondition = "thriving"
	RoomSteady   RoomCondition = "steady"
	RoomCracked  RoomCondition = "cracked"
)

// ParseRoomCondition normalises persisted values; anything unknown is steady.
func ParseRoomCondition(s string) RoomCondition {
	switch RoomCondition(s) {
	case RoomThriving, RoomCracked:
		return RoomCondition(s)
	default:
		return RoomSteady
	}
}
