// Package alert evaluates the out-of-range banner from the latest reading.
package alert

import "github.com/saveugene/pulsedash/internal/vitals"

// Message is the banner text for an out-of-range reading.
const Message = "Heart rate out of safe range!"

// State is the banner. Message is empty when the banner is hidden.
type State struct {
	Active  bool
	Message string
}

// Evaluate is a pure function of the latest value: no hysteresis, so values
// oscillating across a bound toggle the banner on every sample.
func Evaluate(value float64) State {
	if vitals.OutOfRange(value) {
		return State{Active: true, Message: Message}
	}
	return State{}
}

// Notice shows a non-fatal message, such as a transport fault, in the banner.
func Notice(msg string) State {
	return State{Active: true, Message: msg}
}
