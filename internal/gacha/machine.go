package gacha

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/delay"
)

// State is the capsule state.
type State string

// Capsule states.
const (
	StateIdle        State = "idle"
	StateCounted     State = "counted"
	StateDispensable State = "dispensable"
)

// Events reported to the Listener.
const (
	EventCounter       = "counter"
	EventCapsuleReady  = "capsule_ready"
	EventGift          = "gift"
	EventOverlayClosed = "overlay_closed"
)

// DefaultDispenseDelay is the wait between the knob turning and the capsule
// becoming clickable.
const DefaultDispenseDelay = 400 * time.Millisecond

// ErrCapsuleNotReady is returned when the capsule is opened before it is dispensable.
var ErrCapsuleNotReady = errors.New("capsule is not ready")

// validTransitions defines allowed state transitions.
// A dispensed capsule stays out until it is opened.
var validTransitions = map[State][]State{
	StateIdle:        {StateCounted},
	StateCounted:     {StateCounted, StateDispensable},
	StateDispensable: {StateIdle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Captioner writes a short caption for a gift.
type Captioner interface {
	Caption(ctx context.Context, giftName string) (string, error)
}

// Listener is told about machine changes.
type Listener interface {
	MachineChanged(event string, snap Snapshot)
}

// Snapshot is the externally visible machine state.
type Snapshot struct {
	Count   int   `json:"coin_count"`
	State   State `json:"state"`
	Overlay bool  `json:"overlay"`
	Gift    *Gift `json:"gift,omitempty"`
}

// Machine is the counter / capsule state machine.
type Machine struct {
	// emitMu orders state changes with their notifications.
	emitMu        sync.Mutex
	mu            sync.Mutex
	count         int
	state         State
	overlay       bool
	gift          *Gift
	reveal        int // bumped by every open and dismiss
	catalog       *Catalog
	captioner     Captioner
	rng           *rand.Rand
	timer         *delay.Timer
	dispenseDelay time.Duration
	listener      Listener
	logger        *log.Logger
}

// NewMachine creates an idle machine with a zero counter.
func NewMachine(catalog *Catalog, dispenseDelay time.Duration, rng *rand.Rand, logger *log.Logger) *Machine {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = log.New("gacha")
	}
	return &Machine{
		state:         StateIdle,
		catalog:       catalog,
		rng:           rng,
		timer:         delay.NewTimer(),
		dispenseDelay: dispenseDelay,
		logger:        logger,
	}
}

// SetListener sets the change listener.
func (m *Machine) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// SetCaptioner sets the gift captioner.
func (m *Machine) SetCaptioner(c Captioner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captioner = c
}

// Redeem counts a coin delivered to the machine and starts dispensing.
// A capsule that is already out stays clickable.
func (m *Machine) Redeem() int {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	m.count++
	dispense := m.startDispenseLocked()
	count := m.count
	m.mu.Unlock()

	if dispense {
		m.scheduleDispense()
	}
	m.notify(EventCounter)
	return count
}

// ManualDraw spends one coin to dispense a capsule.
// Returns false and does nothing when the counter is zero.
func (m *Machine) ManualDraw() bool {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if m.count <= 0 {
		m.mu.Unlock()
		return false
	}
	m.count--
	dispense := m.startDispenseLocked()
	m.mu.Unlock()

	if dispense {
		m.scheduleDispense()
	}
	m.notify(EventCounter)
	return true
}

// OpenCapsule reveals a random gift and returns the machine to idle.
// The caption is written without holding the machine, so other operations
// go on meanwhile; a gift whose overlay was dismissed in the meantime is
// not announced.
func (m *Machine) OpenCapsule(ctx context.Context) (Gift, error) {
	m.emitMu.Lock()
	m.mu.Lock()
	if m.state != StateDispensable {
		m.mu.Unlock()
		m.emitMu.Unlock()
		return Gift{}, ErrCapsuleNotReady
	}
	gift := m.catalog.Pick(m.rng)
	m.setState(StateIdle)
	m.overlay = true
	m.gift = nil
	m.reveal++
	reveal := m.reveal
	captioner := m.captioner
	m.mu.Unlock()
	m.emitMu.Unlock()

	if captioner != nil {
		caption, err := captioner.Caption(ctx, gift.Name)
		if err != nil {
			m.logger.Warnf("caption failed for %s: %v", gift.Name, err)
		} else {
			gift.Caption = caption
		}
	}

	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	current := m.reveal == reveal
	if current {
		g := gift
		m.gift = &g
	}
	m.mu.Unlock()

	if current {
		m.notify(EventGift)
	}
	return gift, nil
}

// DismissOverlay hides the gift overlay.
func (m *Machine) DismissOverlay() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	shown := m.overlay
	m.overlay = false
	m.gift = nil
	m.reveal++
	m.mu.Unlock()

	if shown {
		m.notify(EventOverlayClosed)
	}
}

// Gifts returns every gift a capsule can contain.
func (m *Machine) Gifts() []Gift {
	return m.catalog.Gifts()
}

// Snapshot returns the current machine state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close cancels a pending dispense.
func (m *Machine) Close() {
	m.timer.Cancel()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Count:   m.count,
		State:   m.state,
		Overlay: m.overlay,
	}
	if m.gift != nil {
		g := *m.gift
		snap.Gift = &g
	}
	return snap
}

// setState must be called with mu held.
func (m *Machine) setState(to State) {
	if !CanTransition(m.state, to) {
		m.logger.Warnf("invalid transition %s -> %s", m.state, to)
		return
	}
	m.state = to
}

// startDispenseLocked moves to counted unless a capsule is already out and
// reports whether a dispense must be scheduled. mu must be held.
func (m *Machine) startDispenseLocked() bool {
	if m.state == StateDispensable {
		return false
	}
	m.setState(StateCounted)
	return true
}

func (m *Machine) scheduleDispense() {
	m.timer.Schedule(m.dispenseDelay, m.dispense)
}

func (m *Machine) dispense() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if m.state != StateCounted {
		m.mu.Unlock()
		return
	}
	m.setState(StateDispensable)
	m.mu.Unlock()

	m.notify(EventCapsuleReady)
}

func (m *Machine) notify(event string) {
	m.mu.Lock()
	listener := m.listener
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if listener != nil {
		listener.MachineChanged(event, snap)
	}
}
