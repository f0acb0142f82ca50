package clock

import (
	"sync"
	"sync/atomic"
)

// State is what the event sources (the seconds ticker and the buttons) share with the clock
// loop.  Event sources only call Tick and Press; the loop is the only caller of the Take*
// methods.  Suspend blocks event delivery, for code that must not be interrupted.
type State struct {
	dispatch sync.Mutex

	ticks      atomic.Int32
	redisplay  atomic.Bool
	checkInput atomic.Bool
}

// Tick records that a second has passed.
func (s *State) Tick() {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	s.ticks.Add(1)
	s.redisplay.Store(true)
}

// Press records that a button changed state.
func (s *State) Press() {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	s.checkInput.Store(true)
}

// Suspend holds off Tick and Press until resume is called.  Events that arrive in the meantime
// are delivered afterwards, not dropped.
func (s *State) Suspend() (resume func()) {
	s.dispatch.Lock()
	var once sync.Once
	return func() { once.Do(s.dispatch.Unlock) }
}

// TakeTicks returns the number of seconds that passed since the last call.
func (s *State) TakeTicks() int {
	return int(s.ticks.Swap(0))
}

// TakeRedisplay reports whether a redisplay was requested since the last call.
func (s *State) TakeRedisplay() bool {
	return s.redisplay.Swap(false)
}

// CheckInput reports whether the buttons need to be looked at.  The flag stays set until
// ClearInput is called, which the loop does once both buttons are released.
func (s *State) CheckInput() bool {
	return s.checkInput.Load()
}

// ClearInput clears the flag returned by CheckInput.
func (s *State) ClearInput() {
	s.checkInput.Store(false)
}
