package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/north/internal/model"
)

const roomConditionKey = "room_condition"

// SnapshotStore persists the engine snapshot. Save replaces every table's
// contents in one transaction so a crash never leaves a half-written state.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Load reads the stored snapshot. Missing rows leave zero values for the
// engine to default; an empty database returns nil.
func (s *SnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	found := false

	contracts, err := s.loadContracts(ctx)
	if err != nil {
		return nil, err
	}
	snap.Contracts = contracts
	found = found || len(contracts) > 0

	ok, err := s.loadFocus(ctx, &snap.Focus)
	if err != nil {
		return nil, err
	}
	found = found || ok

	ok, err = s.loadRewards(ctx, &snap.Rewards)
	if err != nil {
		return nil, err
	}
	found = found || ok

	if snap.Collectibles, err = s.loadCollectibles(ctx); err != nil {
		return nil, err
	}
	if snap.JournalEntries, err = s.loadJournal(ctx); err != nil {
		return nil, err
	}
	if snap.SuggestedActions, err = s.loadActions(ctx); err != nil {
		return nil, err
	}
	found = found || len(snap.Collectibles) > 0 || len(snap.JournalEntries) > 0 || len(snap.SuggestedActions) > 0

	var room string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, roomConditionKey).Scan(&room)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get room condition: %w", err)
	}
	if err == nil {
		snap.RoomCondition = model.RoomCondition(room)
		found = true
	}

	if !found {
		return nil, nil
	}
	return &snap, nil
}

// Save replaces the stored snapshot with snap.
func (s *SnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"contract_contacts", "contract_reactions", "contracts",
		"unlocked_companions", "collectibles", "journal_entries", "suggested_actions",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range snap.Contracts {
		if err := saveContract(ctx, tx, i, c); err != nil {
			return err
		}
	}

	f := snap.Focus
	_, err = tx.ExecContext(ctx,
		`INSERT INTO focus_state (id, mascot_name, world_name, stars_built, workshop_level, successful_sessions,
		   failed_sessions, current_focus_streak, longest_focus_streak, total_focused_minutes, last_session_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET mascot_name = excluded.mascot_name, world_name = excluded.world_name,
		   stars_built = excluded.stars_built, workshop_level = excluded.workshop_level,
		   successful_sessions = excluded.successful_sessions, failed_sessions = excluded.failed_sessions,
		   current_focus_streak = excluded.current_focus_streak, longest_focus_streak = excluded.longest_focus_streak,
		   total_focused_minutes = excluded.total_focused_minutes, last_session_at = excluded.last_session_at`,
		f.MascotName, f.WorldName, f.StarsBuilt, f.WorkshopLevel, f.SuccessfulSessions,
		f.FailedSessions, f.CurrentFocusStreak, f.LongestFocusStreak, f.TotalFocusedMinutes, nullTime(f.LastSessionAt),
	)
	if err != nil {
		return fmt.Errorf("save focus state: %w", err)
	}

	r := snap.Rewards
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reward_state (id, xp, level, hearts, current_companion) VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET xp = excluded.xp, level = excluded.level,
		   hearts = excluded.hearts, current_companion = excluded.current_companion`,
		r.XP, r.Level, r.Hearts, r.CurrentCompanion,
	)
	if err != nil {
		return fmt.Errorf("save reward state: %w", err)
	}
	for i, name := range r.UnlockedCompanions {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO unlocked_companions (name, position) VALUES (?, ?)`, name, i); err != nil {
			return fmt.Errorf("save companion %s: %w", name, err)
		}
	}

	for i, c := range snap.Collectibles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO collectibles (id, position, name, emoji, rarity, unlocked_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, i, c.Name, c.Emoji, c.Rarity, c.UnlockedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("save collectible %s: %w", c.ID, err)
		}
	}

	for i, j := range snap.JournalEntries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journal_entries (id, position, title, content, mood, word_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			j.ID, i, j.Title, j.Content, j.Mood, j.WordCount, j.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("save journal entry %s: %w", j.ID, err)
		}
	}

	for i, a := range snap.SuggestedActions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO suggested_actions (id, position, title, description, category, is_completed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, i, a.Title, a.Description, a.Category, boolInt(a.IsCompleted), a.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("save suggested action %s: %w", a.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		roomConditionKey, string(snap.RoomCondition),
	)
	if err != nil {
		return fmt.Errorf("save room condition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func saveContract(ctx context.Context, tx *sql.Tx, pos int, c model.Contract) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO contracts (id, position, promise, created_at, deadline_at, unlock_at, status, voice_uri,
		   voice_duration_ms, proof_text, proof_file_name, proof_submitted_at, accountability_sent_at,
		   accountability_pings, shared_to_circle)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, pos, c.Promise, c.CreatedAt.UTC(), c.DeadlineAt.UTC(), c.UnlockAt.UTC(), c.Status, c.VoiceURI,
		c.VoiceDurationMs, c.ProofText, c.ProofFileName, nullTime(c.ProofSubmittedAt), nullTime(c.AccountabilitySentAt),
		c.AccountabilityPings, boolInt(c.SharedToCircle),
	)
	if err != nil {
		return fmt.Errorf("save contract %s: %w", c.ID, err)
	}

	for i, ct := range c.AccountabilityContacts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contract_contacts (contract_id, position, id, name, channel, value) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, i, ct.ID, ct.Name, ct.Channel, ct.Value,
		)
		if err != nil {
			return fmt.Errorf("save contact for contract %s: %w", c.ID, err)
		}
	}
	for i, r := range c.SocialReactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contract_reactions (contract_id, position, emoji, count) VALUES (?, ?, ?, ?)`,
			c.ID, i, r.Emoji, r.Count,
		)
		if err != nil {
			return fmt.Errorf("save reaction for contract %s: %w", c.ID, err)
		}
	}
	return nil
}

const contractColumns = `id, promise, created_at, deadline_at, unlock_at, status, voice_uri, voice_duration_ms,
	proof_text, proof_file_name, proof_submitted_at, accountability_sent_at, accountability_pings, shared_to_circle`

func (s *SnapshotStore) loadContracts(ctx context.Context) ([]model.Contract, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []model.Contract
	index := make(map[string]int)
	for rows.Next() {
		var c model.Contract
		var unlockAt, proofAt, sentAt sql.NullTime
		var shared int
		if err := rows.Scan(&c.ID, &c.Promise, &c.CreatedAt, &c.DeadlineAt, &unlockAt, &c.Status, &c.VoiceURI,
			&c.VoiceDurationMs, &c.ProofText, &c.ProofFileName, &proofAt, &sentAt, &c.AccountabilityPings, &shared); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		if unlockAt.Valid {
			c.UnlockAt = unlockAt.Time
		}
		c.ProofSubmittedAt = timePtr(proofAt)
		c.AccountabilitySentAt = timePtr(sentAt)
		c.SharedToCircle = shared != 0
		c.AccountabilityContacts = []model.AccountabilityContact{}
		c.SocialReactions = []model.Reaction{}
		index[c.ID] = len(contracts)
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT contract_id, id, name, channel, value FROM contract_contacts ORDER BY contract_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var contractID string
		var ct model.AccountabilityContact
		if err := crows.Scan(&contractID, &ct.ID, &ct.Name, &ct.Channel, &ct.Value); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if i, ok := index[contractID]; ok {
			contracts[i].AccountabilityContacts = append(contracts[i].AccountabilityContacts, ct)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	rrows, err := s.db.QueryContext(ctx,
		`SELECT contract_id, emoji, count FROM contract_reactions ORDER BY contract_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var contractID string
		var r model.Reaction
		if err := rrows.Scan(&contractID, &r.Emoji, &r.Count); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		if i, ok := index[contractID]; ok {
			contracts[i].SocialReactions = append(contracts[i].SocialReactions, r)
		}
	}
	return contracts, rrows.Err()
}

func (s *SnapshotStore) loadFocus(ctx context.Context, f *model.FocusGameState) (bool, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT mascot_name, world_name, stars_built, workshop_level, successful_sessions, failed_sessions,
		   current_focus_streak, longest_focus_streak, total_focused_minutes, last_session_at
		 FROM focus_state WHERE id = 1`,
	).Scan(&f.MascotName, &f.WorldName, &f.StarsBuilt, &f.WorkshopLevel, &f.SuccessfulSessions, &f.FailedSessions,
		&f.CurrentFocusStreak, &f.LongestFocusStreak, &f.TotalFocusedMinutes, &last)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get focus state: %w", err)
	}
	f.LastSessionAt = timePtr(last)
	return true, nil
}

func (s *SnapshotStore) loadRewards(ctx context.Context, r *model.RewardState) (bool, error) {
	err := s.db.QueryRowContext(ctx,
		`SELECT xp, level, hearts, current_companion FROM reward_state WHERE id = 1`,
	).Scan(&r.XP, &r.Level, &r.Hearts, &r.CurrentCompanion)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get reward state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM unlocked_companions ORDER BY position`)
	if err != nil {
		return false, fmt.Errorf("list companions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scan companion: %w", err)
		}
		r.UnlockedCompanions = append(r.UnlockedCompanions, name)
	}
	return true, rows.Err()
}

func (s *SnapshotStore) loadCollectibles(ctx context.Context) ([]model.Collectible, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, emoji, rarity, unlocked_at FROM collectibles ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list collectibles: %w", err)
	}
	defer rows.Close()

	var out []model.Collectible
	for rows.Next() {
		var c model.Collectible
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Rarity, &c.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan collectible: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SnapshotStore) loadJournal(ctx context.Context) ([]model.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, mood, word_count, created_at FROM journal_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []model.JournalEntry
	for rows.Next() {
		var j model.JournalEntry
		if err := rows.Scan(&j.ID, &j.Title, &j.Content, &j.Mood, &j.WordCount, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SnapshotStore) loadActions(ctx context.Context) ([]model.SuggestedAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, category, is_completed, created_at FROM suggested_actions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list suggested actions: %w", err)
	}
	defer rows.Close()

	var out []model.SuggestedAction
	for rows.Next() {
		var a model.SuggestedAction
		var done int
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &done, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suggested action: %w", err)
		}
		a.IsCompleted = done != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
