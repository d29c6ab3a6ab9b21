package model

// Snapshot is the full persisted state of one device.
type Snapshot struct {
	Contracts        []Contract        `json:"contracts"`
	Focus            FocusGameState    `json:"focus"`
	Rewards          RewardState       `json:"rewards"`
	Collectibles     []Collectible     `json:"collectibles"`
	JournalEntries   []JournalEntry    `json:"journal_entries"`
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
	RoomCondition    RoomCondition     `json:"room_condition"`
}

func DefaultSnapshot() Snapshot {
	return Snapshot{
		Focus:         DefaultFocusGameState(),
		Rewards:       DefaultRewardState(),
		RoomCondition: RoomSteady,
	}
}

// Normalize fills zero or missing fields with defaults. A partially written
// snapshot is the only recovery path after a crash, so it must always load.
func (s *Snapshot) Normalize() {
	def := DefaultSnapshot()
	if s.Focus.MascotName == "" {
		s.Focus.MascotName = def.Focus.MascotName
	}
	if s.Focus.WorldName == "" {
		s.Focus.WorldName = def.Focus.WorldName
	}
	// Derived counters never drop below what xp and stars imply.
	s.Focus.WorkshopLevel = max(s.Focus.WorkshopLevel, WorkshopLevelFor(s.Focus.StarsBuilt))
	s.Rewards.Level = max(s.Rewards.Level, LevelForXP(s.Rewards.XP))
	if len(s.Rewards.UnlockedCompanions) == 0 {
		s.Rewards.UnlockedCompanions = def.Rewards.UnlockedCompanions
	}
	s.Rewards.UnlockCompanions()
	if s.Rewards.CurrentCompanion == "" {
		s.Rewards.CurrentCompanion = StarterCompanion
	}
	s.RoomCondition = ParseRoomCondition(string(s.RoomCondition))
	for i := range s.Contracts {
		if s.Contracts[i].UnlockAt.IsZero() {
			s.Contracts[i].UnlockAt = s.Contracts[i].DeadlineAt
		}
		if s.Contracts[i].Status == "" {
			s.Contracts[i].Status = ContractActive
		}
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Contracts = make([]Contract, len(s.Contracts))
	for i, c := range s.Contracts {
		out.Contracts[i] = c.Clone()
	}
	if s.Focus.LastSessionAt != nil {
		t := *s.Focus.LastSessionAt
		out.Focus.LastSessionAt = &t
	}
	out.Rewards.UnlockedCompanions = append([]string(nil), s.Rewards.UnlockedCompanions...)
	out.Collectibles = append([]Collectible(nil), s.Collectibles...)
	out.JournalEntries = append([]JournalEntry(nil), s.JournalEntries...)
	out.SuggestedActions = append([]SuggestedAction(nil), s.SuggestedActions...)
	return out
}
