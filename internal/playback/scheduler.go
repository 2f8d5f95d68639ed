// Package playback schedules MIDI sequences onto a Sink in real time,
// with up to eight sequences playing concurrently.
package playback

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/aldakit-go/internal/midi"
)

// Sink receives timed MIDI events from the scheduler. Calls are
// serialized; implementations do not need their own locking against
// the scheduler.
type Sink interface {
	NoteOn(channel, note, velocity int)
	NoteOff(channel, note int)
	ProgramChange(channel, program int)
	ControlChange(channel, control, value int)
	AllNotesOff()
}

const (
	maxSlots       = 8
	sleepQuantum   = 10 * time.Millisecond
	joinTimeout    = 500 * time.Millisecond
	waitPoll       = 50 * time.Millisecond
	sequentialPoll = 10 * time.Millisecond
)

type eventKind int

const (
	eventNoteOff eventKind = iota // sorts first at equal times
	eventNoteOn
	eventProgram
	eventControl
)

// event is a single timed message, at seconds from playback start.
type event struct {
	at      float64
	kind    eventKind
	channel int
	a, b    int
}

type slot struct {
	id     int
	active bool
	stop   atomic.Bool
	done   chan struct{}
	total  int
	index  atomic.Int64
}

// SlotInfo reports the state of one playback slot.
type SlotInfo struct {
	ID         int
	Active     bool
	EventCount int
	EventIndex int
}

// Scheduler plays sequences on a Sink across up to eight concurrent
// slots. In concurrent mode (the default) each Play starts immediately
// and layers over anything already sounding; in sequential mode Play
// blocks until all prior playback finishes.
type Scheduler struct {
	sink Sink

	mu     sync.Mutex // guards slot bookkeeping
	sinkMu sync.Mutex // serializes sink calls
	slots  [maxSlots]*slot

	concurrent atomic.Bool
	shutdown   atomic.Bool
}

func NewScheduler(sink Sink) *Scheduler {
	s := &Scheduler{sink: sink}
	for i := range s.slots {
		s.slots[i] = &slot{id: i}
	}
	s.concurrent.Store(true)
	return s
}

func (s *Scheduler) SetConcurrentMode(enabled bool) {
	s.concurrent.Store(enabled)
}

func (s *Scheduler) ConcurrentMode() bool {
	return s.concurrent.Load()
}

// ActiveCount returns the number of slots currently playing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		if sl.active {
			n++
		}
	}
	return n
}

func (s *Scheduler) IsPlaying() bool {
	return s.ActiveCount() > 0
}

// Play starts a sequence asynchronously and returns the slot it
// occupies. ok is false when the sequence is empty, all slots are
// busy, or the scheduler has been shut down.
func (s *Scheduler) Play(seq *midi.Sequence) (int, bool) {
	if s.shutdown.Load() {
		return 0, false
	}

	if !s.concurrent.Load() {
		for s.IsPlaying() {
			time.Sleep(sequentialPoll)
		}
	}

	events := buildEvents(seq)
	if len(events) == 0 {
		return 0, false
	}

	s.mu.Lock()
	var sl *slot
	for _, candidate := range s.slots {
		if !candidate.active {
			sl = candidate
			break
		}
	}
	if sl == nil {
		s.mu.Unlock()
		return 0, false
	}
	sl.active = true
	sl.stop.Store(false)
	sl.done = make(chan struct{})
	sl.total = len(events)
	sl.index.Store(0)
	s.mu.Unlock()

	go s.runSlot(sl, events)
	return sl.id, true
}

// buildEvents flattens a sequence into a time-sorted event list, with
// note-offs ahead of other events at the same instant so retriggered
// pitches release before they restrike.
func buildEvents(seq *midi.Sequence) []event {
	var events []event

	for _, pc := range seq.ProgramChanges {
		events = append(events, event{at: pc.Time, kind: eventProgram, channel: pc.Channel, a: pc.Program})
	}
	for _, cc := range seq.ControlChanges {
		events = append(events, event{at: cc.Time, kind: eventControl, channel: cc.Channel, a: cc.Control, b: cc.Value})
	}
	for _, n := range seq.Notes {
		events = append(events, event{at: n.Start, kind: eventNoteOn, channel: n.Channel, a: n.Pitch, b: n.Velocity})
		events = append(events, event{at: n.Start + n.Duration, kind: eventNoteOff, channel: n.Channel, a: n.Pitch})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].kind == eventNoteOff && events[j].kind != eventNoteOff
	})
	return events
}

func (s *Scheduler) runSlot(sl *slot, events []event) {
	// The slot may be reassigned the moment active clears, so close the
	// channel this run was started with.
	done := sl.done
	defer func() {
		s.mu.Lock()
		sl.active = false
		sl.total = 0
		sl.index.Store(0)
		s.mu.Unlock()
		close(done)
	}()

	start := time.Now()

	for i, e := range events {
		if sl.stop.Load() || s.shutdown.Load() {
			return
		}

		sl.index.Store(int64(i))

		target := start.Add(time.Duration(e.at * float64(time.Second)))
		for {
			remaining := time.Until(target)
			if remaining <= 0 {
				break
			}
			if sl.stop.Load() || s.shutdown.Load() {
				return
			}
			if remaining > sleepQuantum {
				time.Sleep(sleepQuantum)
			} else {
				time.Sleep(remaining)
			}
		}

		if sl.stop.Load() || s.shutdown.Load() {
			return
		}

		s.sinkMu.Lock()
		switch e.kind {
		case eventNoteOn:
			s.sink.NoteOn(e.channel, e.a, e.b)
		case eventNoteOff:
			s.sink.NoteOff(e.channel, e.a)
		case eventProgram:
			s.sink.ProgramChange(e.channel, e.a)
		case eventControl:
			s.sink.ControlChange(e.channel, e.a, e.b)
		}
		s.sinkMu.Unlock()
	}
}

// Stop halts all playing slots, waits briefly for their goroutines to
// exit, and silences the sink.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	var pending []chan struct{}
	for _, sl := range s.slots {
		if sl.active {
			sl.stop.Store(true)
			pending = append(pending, sl.done)
		}
	}
	s.mu.Unlock()

	deadline := time.After(joinTimeout)
	for _, done := range pending {
		select {
		case <-done:
		case <-deadline:
		}
	}

	s.sinkMu.Lock()
	s.sink.AllNotesOff()
	s.sinkMu.Unlock()
}

// StopSlot halts one slot, leaving the others playing.
func (s *Scheduler) StopSlot(id int) {
	if id < 0 || id >= maxSlots {
		return
	}

	s.mu.Lock()
	sl := s.slots[id]
	active := sl.active
	done := sl.done
	if active {
		sl.stop.Store(true)
	}
	s.mu.Unlock()

	if !active {
		return
	}
	select {
	case <-done:
	case <-time.After(joinTimeout):
	}
}

// Wait blocks until every slot has finished playing.
func (s *Scheduler) Wait() {
	for s.IsPlaying() {
		time.Sleep(waitPoll)
	}
}

// Shutdown stops all playback and rejects further Play calls.
func (s *Scheduler) Shutdown() {
	s.shutdown.Store(true)
	s.Stop()
}

// Slots reports the state of every slot.
func (s *Scheduler) Slots() []SlotInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := make([]SlotInfo, maxSlots)
	for i, sl := range s.slots {
		info[i] = SlotInfo{
			ID:         sl.id,
			Active:     sl.active,
			EventCount: sl.total,
			EventIndex: int(sl.index.Load()),
		}
	}
	return info
}
