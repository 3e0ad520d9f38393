package board

import (
	"errors"
	"fmt"
)

// IO is the capability interface handed to components.
type IO interface {
	DigitalRead(pin int) (bool, error)
	DigitalWrite(pin int, value bool) error
	AnalogRead(pin int) (int, error)
	AnalogWrite(pin int, value int) error

	// Now returns the current time in milliseconds.
	Now() int64
}

// Profile describes the pins a board exposes.
type Profile struct {
	Name        string `json:"name"`
	DigitalPins int    `json:"digital_pins"`
	AnalogPins  int    `json:"analog_pins"`
	AnalogMax   int    `json:"analog_max"`
}

// DefaultProfile matches an Arduino Uno: 20 digital pins (A0-A5 double as
// digital 14-19), 6 analog inputs and 10-bit analog resolution.
var DefaultProfile = Profile{
	Name:        "uno",
	DigitalPins: 20,
	AnalogPins:  6,
	AnalogMax:   1023,
}

// Validate checks that the profile describes a usable board.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("board name is required")
	}
	if p.DigitalPins <= 0 {
		return fmt.Errorf("board %s: digital_pins must be positive, got %d", p.Name, p.DigitalPins)
	}
	if p.AnalogPins < 0 {
		return fmt.Errorf("board %s: analog_pins must not be negative, got %d", p.Name, p.AnalogPins)
	}
	if p.AnalogMax <= 0 {
		return fmt.Errorf("board %s: analog_max must be positive, got %d", p.Name, p.AnalogMax)
	}
	return nil
}

// PinError reports an IO operation the board cannot perform.
type PinError struct {
	Op     string // "digital_read", "digital_write", "analog_read", "analog_write"
	Pin    int
	Reason string
}

// Error implements the error interface.
func (e *PinError) Error() string {
	return fmt.Sprintf("%s pin %d: %s", e.Op, e.Pin, e.Reason)
}

// IsPinError returns true if err is or wraps a PinError.
func IsPinError(err error) bool {
	var pe *PinError
	return errors.As(err, &pe)
}

// ErrClosed is returned by host-side operations on a closed SimulatedIO.
var ErrClosed = errors.New("board: simulated io closed")
