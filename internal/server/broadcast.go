package server

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/protocol"
	"github.com/zeusync/drain/internal/core/simulation"
	"github.com/zeusync/drain/pkg/generic"
)

var keyBuffers = generic.NewBufferPool(10 * 8)

func (s *Server) subscribe() error {
	handlers := map[string]bus.EventHandler{
		bus.TypeTick:  s.onTick,
		bus.TypeWin:   s.onWin,
		bus.TypeArena: s.onArena,
	}
	for eventType, handler := range handlers {
		sub, err := s.bus.Subscribe(eventType, handler)
		if err != nil {
			s.unsubscribe()
			return errors.Wrapf(err, "subscribe %s", eventType)
		}
		s.subs = append(s.subs, sub)
	}
	s.bus.AddObserver(s.observer)
	return nil
}

func (s *Server) unsubscribe() {
	s.bus.RemoveObserver(s.observer)
	for _, sub := range s.subs {
		_ = s.bus.Unsubscribe(sub)
	}
	s.subs = nil
}

// onTick broadcasts every BroadcastEvery-th snapshot to viewers, skipping
// frames that would only differ from the previous one by tick number.
func (s *Server) onTick(e bus.Event) error {
	snap, ok := e.Data().(simulation.Snapshot)
	if !ok {
		return fmt.Errorf("%s: unexpected payload %T", e.Type(), e.Data())
	}

	n := s.ticks.Add(1)
	if n%uint64(s.config.BroadcastEvery) != 0 {
		return nil
	}

	key := stateKey(snap)
	if s.hasState.Load() && s.lastState.Load() == key {
		s.skipped.Add(1)
		return nil
	}
	s.lastState.Store(key)
	s.hasState.Store(true)

	frame, err := protocol.Encode(protocol.MsgState, protocol.NewState(snap))
	if err != nil {
		return err
	}
	s.fanout(frame)
	return nil
}

func (s *Server) onWin(e bus.Event) error {
	win, ok := e.Data().(simulation.WinEvent)
	if !ok {
		return fmt.Errorf("%s: unexpected payload %T", e.Type(), e.Data())
	}

	frame, err := protocol.Encode(protocol.MsgWin, protocol.Win{Tick: win.Tick, Wins: win.Wins})
	if err != nil {
		return err
	}
	s.fanout(frame)
	return nil
}

// onArena forces the next state frame out.
func (s *Server) onArena(bus.Event) error {
	s.hasState.Store(false)
	return nil
}

// fanout queues frame on every viewer. Viewers that cannot keep up are
// closed by their own enqueue.
func (s *Server) fanout(frame []byte) {
	s.mu.RLock()
	viewers := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Role().Receives() {
			viewers = append(viewers, sess)
		}
	}
	s.mu.RUnlock()

	s.sent.Add(1)
	for _, sess := range viewers {
		if err := sess.enqueue(frame); errors.Is(err, ErrSlowConsumer) {
			sess.logger.Warn("Dropping slow consumer",
				log.Uint64("frames_dropped", sess.framesDropped.Load()))
		}
	}
}

// stateKey hashes what a viewer draws: the body, the win count and the
// arena. Drain and plates follow from the arena.
func stateKey(snap simulation.Snapshot) uint64 {
	values := [...]float64{
		snap.Body.X, snap.Body.Y, snap.Body.VX, snap.Body.VY, snap.Body.Radius,
		snap.Arena.Top, snap.Arena.Left, snap.Arena.Right, snap.Arena.Bottom,
	}
	buf := keyBuffers.Get()
	defer keyBuffers.Put(buf)

	for _, v := range values {
		*buf = binary.LittleEndian.AppendUint64(*buf, math.Float64bits(v))
	}
	*buf = binary.LittleEndian.AppendUint64(*buf, snap.Wins)
	return xxhash.Sum64(*buf)
}
