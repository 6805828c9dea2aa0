// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tamzrod/eg4-bank/internal/bank"
	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/command"
	"github.com/tamzrod/eg4-bank/internal/discovery"
	"github.com/tamzrod/eg4-bank/internal/frame"
)

// Session owns one bank: its presence set, the last per-unit records and
// the last published pack. All bus traffic is serialized through busMu;
// the protocol forbids concurrent requests on the chain.
type Session struct {
	id  string
	cfg Config
	tr  Transport
	agg *bank.Aggregator
	log *zap.Logger
	rec Recorder

	pace *rate.Limiter
	now  func() time.Time

	busMu sync.Mutex
	// refresh cycles since the last full discovery / missing-unit recheck (busMu)
	sinceDiscovery int
	sinceRecheck   int

	mu         sync.RWMutex
	discovered bool
	presence   bms.PresenceSet
	hardware   map[bms.UnitAddress]bms.HardwareInfo
	units      map[bms.UnitAddress]bms.UnitTelemetry
	pack       bms.PackTelemetry
	hasPack    bool
}

// Option customizes a Session.
type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.rec = r
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session with immutable config.
func New(cfg Config, tr Transport, opts ...Option) (*Session, error) {
	if tr == nil {
		return nil, errors.New("poller: transport required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	for _, a := range cfg.Units {
		if !a.Valid() {
			return nil, fmt.Errorf("poller: unit address %d out of range", a)
		}
	}
	if cfg.StaticAttempts <= 0 {
		cfg.StaticAttempts = discovery.DefaultStaticAttempts
	}
	if cfg.ScanAttempts <= 0 {
		cfg.ScanAttempts = discovery.DefaultScanAttempts
	}
	if cfg.RediscoverCycles <= 0 {
		cfg.RediscoverCycles = 1
	}
	if cfg.RecheckMissingCycles < 0 {
		cfg.RecheckMissingCycles = 0
	}

	limit := rate.Inf
	if cfg.Settle > 0 {
		limit = rate.Every(cfg.Settle)
	}

	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		tr:       tr,
		agg:      bank.New(cfg.Mode),
		log:      zap.NewNop(),
		rec:      nopRecorder{},
		pace:     rate.NewLimiter(limit, 1),
		now:      time.Now,
		hardware: make(map[bms.UnitAddress]bms.HardwareInfo),
		units:    make(map[bms.UnitAddress]bms.UnitTelemetry),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("session", s.id))
	return s, nil
}

func (s *Session) ID() string { return s.id }

// ---- discovery ----

// Discover queries the configured units (or 1..16 when none are configured)
// and replaces the session's presence set.
func (s *Session) Discover(ctx context.Context) bms.PresenceSet {
	s.busMu.Lock()
	defer s.busMu.Unlock()
	return s.discoverLocked(ctx)
}

// candidates returns the addresses discovery queries and the attempt budget.
func (s *Session) candidates() ([]bms.UnitAddress, int) {
	if len(s.cfg.Units) == 0 {
		return bms.AllAddresses(), s.cfg.ScanAttempts
	}
	return s.cfg.Units, s.cfg.StaticAttempts
}

func (s *Session) discoverLocked(ctx context.Context) bms.PresenceSet {
	candidates, attempts := s.candidates()

	res := discovery.Discover(ctx, candidates, attempts, s.readHardware, s.log)
	s.rec.Discovery(res.Presence)
	s.sinceDiscovery, s.sinceRecheck = 0, 0

	s.mu.Lock()
	s.discovered = true
	s.presence = res.Presence
	s.hardware = res.Hardware
	s.mu.Unlock()

	if res.Presence.Empty() {
		s.log.Error("no bms units found", zap.Int("candidates", len(candidates)))
	} else if !res.Presence.Has(bms.MasterAddress) {
		s.log.Error("master unit did not answer discovery", zap.Stringer("master", bms.MasterAddress))
	}
	for _, hw := range res.Hardware {
		s.log.Info("bms hardware",
			zap.Stringer("unit", hw.Address),
			zap.String("make", hw.Make),
			zap.String("version", hw.Version),
			zap.String("serial", hw.Serial),
		)
	}
	return res.Presence
}

// recheckMissingLocked gives every candidate absent from presence one
// attempt and merges the ones that answer.
func (s *Session) recheckMissingLocked(ctx context.Context, presence bms.PresenceSet) bms.PresenceSet {
	s.sinceRecheck = 0

	all, _ := s.candidates()
	var missing []bms.UnitAddress
	for _, a := range all {
		if !presence.Has(a) {
			missing = append(missing, a)
		}
	}
	if len(missing) == 0 {
		return presence
	}

	res := discovery.Discover(ctx, missing, 1, s.readHardware, s.log)
	if res.Presence.Empty() {
		return presence
	}

	merged := make(bms.PresenceSet, len(presence)+len(res.Presence))
	for a, ok := range presence {
		merged[a] = ok
	}
	s.mu.Lock()
	for a, ok := range res.Presence {
		merged[a] = ok
		s.hardware[a] = res.Hardware[a]
	}
	s.presence = merged
	s.mu.Unlock()

	s.rec.Discovery(merged)
	s.log.Info("absent units joined the bank", zap.Any("units", res.Presence.Present()))
	return merged
}

// presenceForCycle decides whether this cycle runs a full discovery, a
// recheck of absent units, or neither. Caller holds busMu.
func (s *Session) presenceForCycle(ctx context.Context) bms.PresenceSet {
	s.mu.RLock()
	discovered, presence := s.discovered, s.presence
	s.mu.RUnlock()

	switch {
	case !discovered:
		presence = s.discoverLocked(ctx)
	case !presence.Has(bms.MasterAddress) && s.sinceDiscovery >= s.cfg.RediscoverCycles:
		s.log.Info("master missing, rediscovering", zap.Int("cycles", s.sinceDiscovery))
		presence = s.discoverLocked(ctx)
	case s.cfg.RecheckMissingCycles > 0 && s.sinceRecheck >= s.cfg.RecheckMissingCycles:
		presence = s.recheckMissingLocked(ctx, presence)
	}

	s.sinceDiscovery++
	s.sinceRecheck++
	return presence
}

// ---- refresh ----

// Refresh runs one full cycle: discovery on first use (and again while the
// master is missing), one cell-telemetry read per present unit (paced by
// the settle delay), then aggregation. Absent units are rechecked every
// RecheckMissingCycles cycles. On failure the previously published pack is
// left untouched.
func (s *Session) Refresh(ctx context.Context) (bms.PackTelemetry, error) {
	s.busMu.Lock()
	defer s.busMu.Unlock()

	start := s.now()

	presence := s.presenceForCycle(ctx)

	perUnit := make(map[bms.UnitAddress]*bms.UnitTelemetry, len(presence))
	for _, addr := range presence.Present() {
		u, err := s.readCell(ctx, addr)
		if err != nil {
			perUnit[addr] = nil
			continue
		}
		perUnit[addr] = &u
	}

	pack, err := s.agg.Aggregate(perUnit)
	if err != nil {
		s.rec.Refresh(bms.PackTelemetry{}, err, s.now().Sub(start))
		s.log.Error("refresh failed, keeping previous pack", zap.Error(err))
		return bms.PackTelemetry{}, err
	}
	pack.UpdatedAt = s.now()

	s.mu.Lock()
	for addr, u := range perUnit {
		if u != nil {
			u.UpdatedAt = pack.UpdatedAt
			s.units[addr] = *u
		}
	}
	s.pack = pack
	s.hasPack = true
	s.mu.Unlock()

	s.rec.Refresh(pack, nil, s.now().Sub(start))
	if s.cfg.StatusReport {
		s.statusReport(pack)
	}
	return pack.Clone(), nil
}

// UnitTelemetry reads one unit now, outside the refresh cycle.
// The result also replaces that unit's cached record.
func (s *Session) UnitTelemetry(ctx context.Context, addr bms.UnitAddress) (bms.UnitTelemetry, error) {
	s.busMu.Lock()
	defer s.busMu.Unlock()

	u, err := s.readCell(ctx, addr)
	if err != nil {
		return bms.UnitTelemetry{}, err
	}
	u.UpdatedAt = s.now()

	s.mu.Lock()
	s.units[addr] = u
	s.mu.Unlock()
	return u, nil
}

// ConfigBlock reads the master's configuration registers and returns the
// validated payload. The block layout is vendor-private and not decoded.
func (s *Session) ConfigBlock(ctx context.Context) ([]byte, error) {
	s.busMu.Lock()
	defer s.busMu.Unlock()

	resp, err := s.request(ctx, bms.MasterAddress, bms.KindConfig)
	if err != nil {
		return nil, err
	}
	h, err := frame.DecodeHeader(resp)
	if err != nil {
		s.rec.Request(bms.MasterAddress, bms.KindConfig, err)
		return nil, err
	}
	s.rec.Request(bms.MasterAddress, bms.KindConfig, nil)
	return append([]byte(nil), resp[frame.OffPayload:h.PayloadEnd()]...), nil
}

// ---- published state ----

// Pack returns the last published pack. ok is false before the first
// successful refresh.
func (s *Session) Pack() (bms.PackTelemetry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pack.Clone(), s.hasPack
}

// Units returns a copy of the last good record per unit.
func (s *Session) Units() map[bms.UnitAddress]bms.UnitTelemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[bms.UnitAddress]bms.UnitTelemetry, len(s.units))
	for a, u := range s.units {
		u.Cells = append([]float64(nil), u.Cells...)
		out[a] = u
	}
	return out
}

func (s *Session) Presence() bms.PresenceSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(bms.PresenceSet, len(s.presence))
	for a, ok := range s.presence {
		out[a] = ok
	}
	return out
}

func (s *Session) Hardware(addr bms.UnitAddress) (bms.HardwareInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hw, ok := s.hardware[addr]
	return hw, ok
}

// ---- bus requests ----

func (s *Session) readHardware(ctx context.Context, addr bms.UnitAddress) (bms.HardwareInfo, error) {
	resp, err := s.request(ctx, addr, bms.KindHardware)
	if err != nil {
		return bms.HardwareInfo{}, err
	}
	hw, err := frame.DecodeHardwareInfo(resp)
	s.rec.Request(addr, bms.KindHardware, err)
	if err != nil {
		s.log.Error("hardware decode failed", zap.Stringer("unit", addr), zap.Error(err))
	}
	return hw, err
}

func (s *Session) readCell(ctx context.Context, addr bms.UnitAddress) (bms.UnitTelemetry, error) {
	resp, err := s.request(ctx, addr, bms.KindCell)
	if err != nil {
		return bms.UnitTelemetry{}, err
	}
	u, err := frame.DecodeTelemetry(resp)
	s.rec.Request(addr, bms.KindCell, err)
	if err != nil {
		s.log.Error("cell decode failed", zap.Stringer("unit", addr), zap.Error(err))
	}
	return u, err
}

// request performs one paced round-trip and checks the reply came from addr.
// Transport and address failures are recorded here; decode outcomes are
// recorded by the caller.
func (s *Session) request(ctx context.Context, addr bms.UnitAddress, kind bms.RequestKind) ([]byte, error) {
	f, err := command.Lookup(addr, kind)
	if err != nil {
		s.rec.Request(addr, kind, err)
		return nil, err
	}

	if err := s.pace.Wait(ctx); err != nil {
		err = &bms.TransportError{Address: addr, Kind: kind, Err: err}
		s.rec.Request(addr, kind, err)
		return nil, err
	}

	if s.cfg.HexDump {
		s.log.Debug("executed command", zap.Stringer("unit", addr), zap.Stringer("kind", kind), zap.Stringer("request", f))
	}

	resp, err := s.tr.Exchange(f.Bytes())
	if err == nil && len(resp) == 0 {
		err = errors.New("empty reply")
	}
	if err != nil {
		s.log.Error("no reply", zap.Stringer("unit", addr), zap.Stringer("kind", kind), zap.Error(err))
		err = &bms.TransportError{Address: addr, Kind: kind, Err: err}
		s.rec.Request(addr, kind, err)
		return nil, err
	}

	if s.cfg.HexDump {
		s.log.Debug("reply packet",
			zap.Stringer("unit", addr),
			zap.Stringer("kind", kind),
			zap.String("response", fmt.Sprintf("% X", resp)),
		)
	}

	if resp[frame.OffAddress] != byte(addr) {
		var fc byte
		if len(resp) > frame.OffType {
			fc = resp[frame.OffType]
		}
		err := &bms.ProtocolError{
			Function: fc,
			Length:   len(resp),
			Err:      fmt.Errorf("%w: got=%d want=%d", bms.ErrAddressMismatch, resp[frame.OffAddress], addr),
		}
		s.rec.Request(addr, kind, err)
		return nil, err
	}

	return resp, nil
}
