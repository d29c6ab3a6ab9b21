// Package engine owns the app state and exposes every contract, reward,
// focus and journal operation as a method. Each call is a read-modify-write
// under one lock, followed by a best-effort background save.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/reward"
)

var ErrTitleRequired = errors.New("title is required")

const notifyTimeout = 30 * time.Second

// Gateway loads and saves the full snapshot. Load may return nil or a
// partially filled snapshot; missing fields are defaulted.
type Gateway interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}

// Notifier delivers an accountability message for a missed contract.
type Notifier interface {
	NotifyAccountability(ctx context.Context, c model.Contract, message string) error
}

// ChangeFunc is called after every committed mutation.
type ChangeFunc func(entity, action, id string)

// Options configures an Engine. Zero fields get production defaults.
type Options struct {
	Now      func() time.Time
	Rand     reward.Rand
	NewID    func() string
	Location *time.Location
	Logger   *slog.Logger
	Notifier Notifier
	OnChange ChangeFunc
}

type Engine struct {
	mu      sync.Mutex
	state   model.Snapshot
	closing bool

	gw       Gateway
	notifier Notifier
	now      func() time.Time
	rand     reward.Rand
	newID    func() string
	loc      *time.Location
	logger   *slog.Logger
	onChange ChangeFunc

	saveMu   sync.Mutex
	dirty    chan struct{}
	stop     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
	closed   sync.Once
}

// Open loads the persisted snapshot and starts the background saver. A load
// error is returned rather than starting empty, since the first save would
// otherwise overwrite the stored state.
func Open(ctx context.Context, gw Gateway, opts Options) (*Engine, error) {
	snap := model.DefaultSnapshot()
	if gw != nil {
		loaded, err := gw.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if loaded != nil {
			snap = *loaded
		}
	}
	snap.Normalize()

	e := &Engine{
		state:    snap,
		gw:       gw,
		notifier: opts.Notifier,
		now:      opts.Now,
		rand:     opts.Rand,
		newID:    opts.NewID,
		loc:      opts.Location,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		dirty:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rand == nil {
		e.rand = reward.DefaultRand()
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "engine")

	go e.runSaver()
	return e, nil
}

// Close stops the saver, waits for in-flight notifications and writes the
// final state.
func (e *Engine) Close(ctx context.Context) error {
	var err error
	e.closed.Do(func() {
		e.mu.Lock()
		e.closing = true
		e.mu.Unlock()
		close(e.stop)
		<-e.done
		e.inflight.Wait()
		err = e.Flush(ctx)
	})
	return err
}

// Flush writes the current state synchronously.
func (e *Engine) Flush(ctx context.Context) error {
	if e.gw == nil {
		return nil
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	snap := e.state.Clone()
	e.mu.Unlock()

	if err := e.gw.Save(ctx, &snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Replace swaps in a whole snapshot, as after a restore.
func (e *Engine) Replace(snap model.Snapshot) {
	snap = snap.Clone()
	snap.Normalize()

	e.mu.Lock()
	e.state = snap
	e.mu.Unlock()

	e.commit("snapshot", "restored", "")
}

func (e *Engine) runSaver() {
	defer close(e.done)
	for {
		select {
		case <-e.stop:
			return
		case <-e.dirty:
			if err := e.Flush(context.Background()); err != nil {
				e.logger.Error("persist state", "error", err)
			}
		}
	}
}

// commit schedules a save and publishes the change. Must be called without
// e.mu held.
func (e *Engine) commit(entity, action, id string) {
	select {
	case e.dirty <- struct{}{}:
	default:
	}
	if e.onChange != nil {
		e.onChange(entity, action, id)
	}
}

func (e *Engine) dispatch(c model.Contract, message string) {
	if e.notifier == nil {
		return
	}
	// Add must not race the Wait in Close.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closing {
		e.logger.Warn("accountability notification dropped: engine closing", "contract", c.ID)
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := e.notifier.NotifyAccountability(ctx, c, message); err != nil {
			e.logger.Error("accountability notification", "contract", c.ID, "error", err)
		}
	}()
}

func (e *Engine) localNow() time.Time {
	return e.now().In(e.loc)
}

// award must be called with e.mu held.
func (e *Engine) award(amount int) {
	e.state.Rewards = reward.Award(e.state.Rewards, amount)
}
