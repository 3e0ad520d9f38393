package board

import (
	"fmt"
	"sync"
)

// SimulatedIO is an in-memory IO backend with a host-controlled clock.
//
// Thread-safety: all methods are safe for concurrent use. The stepper hook
// and settle observers are always invoked without the internal lock held, so
// they may call back into the SimulatedIO.
type SimulatedIO struct {
	mu      sync.Mutex
	profile Profile
	state   State
	stepper func()

	waiters []func()
	// settled latches the most recent settle that no observer has consumed
	// yet, so a WaitForChange registered right after AdvanceTime still fires.
	// Update clears it.
	settled bool
	closed  bool
}

var _ IO = (*SimulatedIO)(nil)

// NewSimulated creates a simulated backend for the given board profile.
func NewSimulated(profile Profile) *SimulatedIO {
	return &SimulatedIO{
		profile: profile,
		state:   NewState(),
	}
}

// Profile returns the board profile this backend enforces.
func (s *SimulatedIO) Profile() Profile {
	return s.profile
}

// DigitalRead returns the host-set value of a digital input pin.
// Unset pins read low.
func (s *SimulatedIO) DigitalRead(pin int) (bool, error) {
	if err := s.checkDigital("digital_read", pin); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DigitalInputs[pin], nil
}

// DigitalWrite drives a digital output pin.
func (s *SimulatedIO) DigitalWrite(pin int, value bool) error {
	if err := s.checkDigital("digital_write", pin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DigitalOutputs[pin] = value
	return nil
}

// AnalogRead returns the host-set value of an analog input pin.
func (s *SimulatedIO) AnalogRead(pin int) (int, error) {
	if pin < 0 || pin >= s.profile.AnalogPins {
		return 0, &PinError{Op: "analog_read", Pin: pin, Reason: fmt.Sprintf("board %s has %d analog pins", s.profile.Name, s.profile.AnalogPins)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AnalogInputs[pin], nil
}

// AnalogWrite sets a PWM output. Values must lie in [0, AnalogMax].
func (s *SimulatedIO) AnalogWrite(pin int, value int) error {
	if err := s.checkDigital("analog_write", pin); err != nil {
		return err
	}
	if value < 0 || value > s.profile.AnalogMax {
		return &PinError{Op: "analog_write", Pin: pin, Reason: fmt.Sprintf("value %d outside [0, %d]", value, s.profile.AnalogMax)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AnalogOutputs[pin] = value
	return nil
}

// Now returns the simulated time in milliseconds.
func (s *SimulatedIO) Now() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentTimeMs
}

func (s *SimulatedIO) checkDigital(op string, pin int) error {
	if pin < 0 || pin >= s.profile.DigitalPins {
		return &PinError{Op: op, Pin: pin, Reason: fmt.Sprintf("board %s has %d digital pins", s.profile.Name, s.profile.DigitalPins)}
	}
	return nil
}

// State returns a deep snapshot of the simulated state.
func (s *SimulatedIO) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update lets the host mutate state directly, e.g. to preset an output
// before a program is loaded or to drive an input pin. It does not step the
// network, and it drops a latched settle since that no longer describes
// the state.
func (s *SimulatedIO) Update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fn(&s.state)
	s.settled = false
	return nil
}

// SetStepper installs the hook run after every time change. The simulator
// points it at its scheduler step.
func (s *SimulatedIO) SetStepper(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepper = fn
}

// AdvanceTime moves the clock forward by deltaMs, steps the network and
// fires settle observers once it is quiescent.
func (s *SimulatedIO) AdvanceTime(deltaMs int64) error {
	if deltaMs < 0 {
		return fmt.Errorf("advance time: negative delta %dms", deltaMs)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.state.CurrentTimeMs += deltaMs
	return s.stepAndSettle()
}

// SetTime moves the clock to an absolute time. Time never goes backwards.
func (s *SimulatedIO) SetTime(ms int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if ms < s.state.CurrentTimeMs {
		now := s.state.CurrentTimeMs
		s.mu.Unlock()
		return fmt.Errorf("set time: %dms is before current time %dms", ms, now)
	}
	s.state.CurrentTimeMs = ms
	return s.stepAndSettle()
}

// stepAndSettle must be called with s.mu held; it releases the lock.
func (s *SimulatedIO) stepAndSettle() error {
	stepper := s.stepper
	s.mu.Unlock()

	if stepper != nil {
		stepper()
	}
	s.Settle()
	return nil
}

// Settle fires every pending observer, or latches the settle if none is
// waiting. AdvanceTime and SetTime call it once the network is quiescent;
// hosts that step the network themselves call it after the step.
func (s *SimulatedIO) Settle() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	waiters := s.waiters
	s.waiters = nil
	s.settled = len(waiters) == 0
	s.mu.Unlock()

	for _, fn := range waiters {
		fn()
	}
}

// WaitForChange registers a one-shot observer fired the next time the
// network settles. If a settle already happened and nobody observed it, fn
// runs immediately. Only the most recent unobserved settle is latched, so
// several unobserved advances fire fn once, on the state after the last
// one. An Update after that settle drops the latch and fn waits for the
// next settle.
//
// fn runs on the goroutine that caused the settle. After Close,
// registrations are ignored.
func (s *SimulatedIO) WaitForChange(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.settled {
		s.settled = false
		s.mu.Unlock()
		fn()
		return
	}
	s.waiters = append(s.waiters, fn)
	s.mu.Unlock()
}

// PendingWaiters returns the number of registered settle observers.
func (s *SimulatedIO) PendingWaiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Close renders pending observers inert and rejects further time changes.
// Close is idempotent.
func (s *SimulatedIO) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.waiters = nil
	s.settled = false
	s.stepper = nil
}
