package engine

import (
	"slices"
	"time"

	"github.com/dukerupert/north/internal/contract"
	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/reward"
)

// ContractView is a contract with its live label and countdown.
type ContractView struct {
	model.Contract
	Label     contract.Label `json:"label"`
	Countdown string         `json:"countdown"`
}

// ProofResult is returned after a kept promise.
type ProofResult struct {
	Contract    model.Contract    `json:"contract"`
	Collectible model.Collectible `json:"collectible"`
	Rewards     model.RewardState `json:"rewards"`
}

// find must be called with e.mu held.
func (e *Engine) find(id string) *model.Contract {
	for i := range e.state.Contracts {
		if e.state.Contracts[i].ID == id {
			return &e.state.Contracts[i]
		}
	}
	return nil
}

// CreateContract adds a new active contract at the head of the list.
func (e *Engine) CreateContract(d contract.Draft) (*model.Contract, error) {
	e.mu.Lock()
	c, err := contract.New(d, e.now(), e.newID)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.state.Contracts = slices.Insert(e.state.Contracts, 0, c)
	if e.state.RoomCondition == model.RoomCracked {
		e.state.RoomCondition = model.RoomSteady
	}
	e.award(reward.ContractXP)
	out := c.Clone()
	e.mu.Unlock()

	e.logger.Info("contract created", "id", c.ID, "deadline", c.DeadlineAt)
	e.commit("contract", "created", c.ID)
	return &out, nil
}

// SubmitProof completes a contract, awards proof XP and rolls a collectible.
func (e *Engine) SubmitProof(id, proofText, proofFileName string) (*ProofResult, error) {
	e.mu.Lock()
	c := e.find(id)
	if c == nil {
		e.mu.Unlock()
		return nil, nil
	}
	now := e.now()
	if err := contract.SubmitProof(c, proofText, proofFileName, now); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.award(reward.ProofXP)
	drop := reward.Drop(e.rand, reward.ProofLuckBoost, now, e.newID)
	e.state.Collectibles = slices.Insert(e.state.Collectibles, 0, drop)
	e.state.RoomCondition = model.RoomThriving
	res := &ProofResult{
		Contract:    c.Clone(),
		Collectible: drop,
		Rewards:     cloneRewards(e.state.Rewards),
	}
	e.mu.Unlock()

	e.logger.Info("contract kept", "id", id, "collectible", drop.Name, "rarity", drop.Rarity)
	e.commit("contract", "completed", id)
	return res, nil
}

// MarkFailed moves an open contract to failed and cracks the room.
func (e *Engine) MarkFailed(id string) (*model.Contract, error) {
	e.mu.Lock()
	c := e.find(id)
	if c == nil {
		e.mu.Unlock()
		return nil, nil
	}
	if err := contract.Fail(c); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.state.RoomCondition = model.RoomCracked
	out := c.Clone()
	e.mu.Unlock()

	e.logger.Info("contract failed", "id", id)
	e.commit("contract", "failed", id)
	return &out, nil
}

// MarkAccountabilitySent records a manual accountability share.
func (e *Engine) MarkAccountabilitySent(id string) (*model.Contract, error) {
	e.mu.Lock()
	c := e.find(id)
	if c == nil {
		e.mu.Unlock()
		return nil, nil
	}
	if err := contract.MarkAccountabilitySent(c, e.now()); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	out := c.Clone()
	e.mu.Unlock()

	e.commit("contract", "accountability", id)
	return &out, nil
}

// ReportMiss fails the contract if still open, sends the accountability
// message through the notifier and counts the ping. The ping is counted
// whether or not delivery succeeds.
func (e *Engine) ReportMiss(id string) (*model.Contract, error) {
	e.mu.Lock()
	c := e.find(id)
	if c == nil {
		e.mu.Unlock()
		return nil, nil
	}
	if c.Status == model.ContractCompleted {
		e.mu.Unlock()
		return nil, contract.ErrInvalidTransition
	}
	if c.Status != model.ContractFailed {
		_ = contract.Fail(c)
		e.state.RoomCondition = model.RoomCracked
	}
	_ = contract.MarkAccountabilitySent(c, e.now())
	msg := contract.AccountabilityMessage(*c)
	out := c.Clone()
	e.mu.Unlock()

	e.logger.Info("contract missed", "id", id, "pings", out.AccountabilityPings)
	e.dispatch(out.Clone(), msg)
	e.commit("contract", "missed", id)
	return &out, nil
}

// React increments the emoji's count on the contract. Any string is a
// valid emoji key.
func (e *Engine) React(id, emoji string) (*model.Contract, error) {
	e.mu.Lock()
	c := e.find(id)
	if c == nil {
		e.mu.Unlock()
		return nil, nil
	}
	contract.React(c, emoji)
	out := c.Clone()
	e.mu.Unlock()

	e.commit("contract", "reacted", id)
	return &out, nil
}

// SweepContracts promotes every active contract whose unlock time has passed.
func (e *Engine) SweepContracts() []string {
	e.mu.Lock()
	promoted := contract.Sweep(e.state.Contracts, e.now())
	e.mu.Unlock()

	for _, id := range promoted {
		e.logger.Info("contract unlocked", "id", id)
		e.commit("contract", "unlocked", id)
	}
	return promoted
}

// Contracts lists all contracts, newest first, with live labels.
func (e *Engine) Contracts() []ContractView {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	out := make([]ContractView, 0, len(e.state.Contracts))
	for _, c := range e.state.Contracts {
		out = append(out, view(c, now))
	}
	return out
}

// Contract returns one contract, or nil if no such id exists.
func (e *Engine) Contract(id string) *ContractView {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.find(id)
	if c == nil {
		return nil
	}
	v := view(*c, e.now())
	return &v
}

// ShareMessage returns the win message for kept contracts and the
// accountability message otherwise.
func (e *Engine) ShareMessage(id string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.find(id)
	if c == nil {
		return "", false
	}
	if c.Status == model.ContractCompleted {
		return contract.WinMessage(*c), true
	}
	return contract.AccountabilityMessage(*c), true
}

// Summary returns the mascot mood and keep-level.
func (e *Engine) Summary() contract.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return contract.Summarize(e.state.Contracts, e.now())
}

func view(c model.Contract, now time.Time) ContractView {
	return ContractView{
		Contract:  c.Clone(),
		Label:     contract.LiveStatus(c, now),
		Countdown: contract.FormatCountdown(c.DeadlineAt, now),
	}
}

func cloneRewards(r model.RewardState) model.RewardState {
	r.UnlockedCompanions = slices.Clone(r.UnlockedCompanions)
	return r
}
