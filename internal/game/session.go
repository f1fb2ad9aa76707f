// Package game ties the coin field and the gacha machine of one visitor
// together and pushes their changes to the page.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/config"
	"github.com/kyiku/coin-gacha-back/internal/delay"
	"github.com/kyiku/coin-gacha-back/internal/gacha"
	"github.com/kyiku/coin-gacha-back/internal/maintenance"
	"github.com/kyiku/coin-gacha-back/internal/model"
)

// textMessage is the WebSocket text frame type.
const textMessage = 1

var (
	// ErrUnknownToken is returned when a redeemed coin is not on the page.
	ErrUnknownToken = errors.New("unknown coin")
	// ErrSessionClosed is returned for any operation on a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNoLayout is returned when coins are requested before the page has
	// reported its geometry.
	ErrNoLayout = errors.New("layout has not been reported")
)

// Resources are shared by every session of the server.
type Resources struct {
	Profile   config.Profile
	Measurer  *coin.Measurer
	Catalog   *gacha.Catalog
	Captioner gacha.Captioner
	Debug     bool
	LogLevel  log.Lvl
}

// Session is one visitor's game: coins, counter and capsule.
type Session struct {
	ID        string
	CreatedAt time.Time

	registry   *coin.Registry
	layout     *coin.ClientLayout
	measurer   *coin.Measurer
	engine     *coin.Engine
	maintainer *maintenance.Maintainer
	machine    *gacha.Machine
	resize     *delay.Debouncer
	logger     *log.Logger
	logLevel   log.Lvl

	// lastActive is the UnixNano time of the last operation.
	lastActive atomic.Int64

	mu      sync.Mutex
	conn    model.WebSocketConn
	cancel  context.CancelFunc
	started bool
	closed  bool

	writeMu sync.Mutex
}

// NewSession creates a session. Nothing is placed until the page reports
// its layout.
func NewSession(id string, res Resources) *Session {
	if res.LogLevel == 0 {
		res.LogLevel = log.INFO
	}
	logger := log.New("session")
	logger.SetLevel(res.LogLevel)

	measurer := res.Measurer
	if measurer == nil {
		measurer = coin.NewFixedMeasurer(coin.DefaultCoinRadius)
	}

	p := res.Profile
	seed := time.Now().UnixNano()

	registry := coin.NewRegistry()
	layout := coin.NewClientLayout(p.BadgePadding, measurer.MinDistance)
	engine := coin.NewEngine(registry, layout, measurer, p.Regions, p.Engine, rand.New(rand.NewSource(seed)), logger)
	if res.Debug {
		engine.SetDebug(true)
	}

	startup := delay.StartupDelay(p.StartupDelayMinMs, p.StartupDelayMaxMs)
	maintainer := maintenance.NewMaintainer(registry, layout, engine, p.Maintenance(startup), logger)

	// Engine and machine run on different goroutines and need their own sources.
	machine := gacha.NewMachine(res.Catalog, p.DispenseDelay(), rand.New(rand.NewSource(seed+1)), logger)
	if res.Captioner != nil {
		machine.SetCaptioner(res.Captioner)
	}

	s := &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		registry:   registry,
		layout:     layout,
		measurer:   measurer,
		engine:     engine,
		maintainer: maintainer,
		machine:    machine,
		resize:     delay.NewDebouncer(p.ResizeDebounce()),
		logger:     logger,
		logLevel:   res.LogLevel,
	}
	s.Touch()
	registry.Observe(s)
	machine.SetListener(s)
	return s
}

// Attach sets the connection changes are pushed to, replacing any previous one.
func (s *Session) Attach(conn model.WebSocketConn) error {
	s.Touch()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	old := s.conn
	s.conn = conn
	s.mu.Unlock()

	if old != nil && old != conn {
		_ = old.Close()
	}
	return nil
}

// Detach drops conn if it is still the attached connection.
func (s *Session) Detach(conn model.WebSocketConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
	}
}

// ReportLayout records the page geometry. The first report starts coin
// maintenance.
func (s *Session) ReportLayout(snap coin.Snapshot) error {
	s.Touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.layout.Update(snap)
	s.startLocked()
	return nil
}

// Resize records new geometry after a viewport change. Once resizing has
// been quiet for the debounce period every coin is discarded and the field
// is rebuilt.
func (s *Session) Resize(snap coin.Snapshot) error {
	s.Touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.layout.Update(snap)
	if !s.started {
		s.startLocked()
		return nil
	}
	s.resize.Trigger(s.maintainer.NotifyReset)
	return nil
}

func (s *Session) startLocked() {
	if s.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true
	go s.maintainer.Run(ctx)
	s.logger.Infof("session %s started", s.ID)
}

// Redeem consumes the coin with the given id and counts it.
func (s *Session) Redeem(tokenID string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	if _, ok := s.registry.Remove(tokenID); !ok {
		return 0, ErrUnknownToken
	}
	count := s.machine.Redeem()
	s.maintainer.NotifyRedemption()
	return count, nil
}

// ManualDraw spends one counted coin on a capsule. It reports false when
// there is nothing to spend.
func (s *Session) ManualDraw() (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	return s.machine.ManualDraw(), nil
}

// OpenCapsule reveals the gift of a dispensed capsule.
func (s *Session) OpenCapsule(ctx context.Context) (gacha.Gift, error) {
	if err := s.checkOpen(); err != nil {
		return gacha.Gift{}, err
	}
	return s.machine.OpenCapsule(ctx)
}

// DismissOverlay hides the gift overlay.
func (s *Session) DismissOverlay() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.machine.DismissOverlay()
	return nil
}

// Refill tops the field up right away. It returns the visible count and
// the shortfall left after placing.
func (s *Session) Refill() (visible int, short int, err error) {
	if err := s.checkOpen(); err != nil {
		return 0, 0, err
	}
	if !s.layout.Reported() {
		return 0, 0, ErrNoLayout
	}
	short = s.maintainer.Ensure()
	return s.maintainer.Visible(), short, nil
}

// SetDebug toggles rejection logging for this session's placement engine.
func (s *Session) SetDebug(enabled bool) {
	s.Touch()
	s.engine.SetDebug(enabled)
	if !enabled {
		s.logger.SetLevel(s.logLevel)
	}
}

// Debug reports whether rejection logging is on.
func (s *Session) Debug() bool {
	return s.engine.Debug()
}

// Regions returns the forbidden regions of the current layout.
func (s *Session) Regions() []coin.ForbiddenRegion {
	return s.engine.Regions()
}

// Gifts returns the gift set of the machine.
func (s *Session) Gifts() []gacha.Gift {
	return s.machine.Gifts()
}

// Machine returns the current machine state.
func (s *Session) Machine() gacha.Snapshot {
	return s.machine.Snapshot()
}

// Coins returns the coins currently on the page.
func (s *Session) Coins() []*coin.Token {
	return s.registry.Tokens()
}

// State returns the full session state.
func (s *Session) State() model.StateMessage {
	return model.StateMessage{
		Type:       model.TypeState,
		SessionID:  s.ID,
		CoinRadius: s.measurer.Radius(),
		Coins:      model.NewCoinViews(s.registry.Tokens()),
		Snapshot:   s.machine.Snapshot(),
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops maintenance and every pending timer and closes the connection.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.resize.Cancel()
	s.machine.Close()
	if conn != nil {
		_ = conn.Close()
	}
	s.logger.Infof("session %s closed", s.ID)
}

// Touch marks the session as in use.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last operation on the session.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) checkOpen() error {
	s.Touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// TokensAdded implements coin.RegistryObserver.
func (s *Session) TokensAdded(tokens []*coin.Token) {
	s.Send(model.CoinsMessage{Type: model.TypeCoinsAdded, Coins: model.NewCoinViews(tokens)})
}

// TokenRemoved implements coin.RegistryObserver.
func (s *Session) TokenRemoved(token *coin.Token) {
	s.Send(model.CoinRemovedMessage{Type: model.TypeCoinRemoved, CoinID: token.ID})
}

// TokensCleared implements coin.RegistryObserver.
func (s *Session) TokensCleared(tokens []*coin.Token) {
	s.Send(model.CoinsClearedMessage{Type: model.TypeCoinsCleared, Removed: len(tokens)})
}

// MachineChanged implements gacha.Listener.
func (s *Session) MachineChanged(event string, snap gacha.Snapshot) {
	s.Send(model.MachineMessage{Type: event, Snapshot: snap})
}

// Send pushes a message to the attached connection, if any. Writes are
// serialized because a connection supports one writer at a time.
func (s *Session) Send(v interface{}) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Errorf("failed to encode message: %v", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(textMessage, data); err != nil {
		s.logger.Debugf("session %s: write failed: %v", s.ID, err)
	}
}
