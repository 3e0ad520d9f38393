// Package config loads board profiles written in CUE.
//
// A profile file holds the fields of the #Board schema at top level:
//
//	name:         "mega"
//	digital_pins: 70
//	analog_pins:  16
//
// Omitted fields take the Arduino Uno defaults. Unknown fields are errors.
// A few common boards are built in and can be referred to by name.
package config
