// Package transport delivers heart-rate messages from a streaming source to
// the dashboard loop.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/saveugene/pulsedash/internal/stats"
)

// ErrMalformed marks an inbound message without a usable numeric value.
var ErrMalformed = errors.New("malformed sample")

// Message is one inbound reading. The observation follows the FHIR
// Observation resource used by the sensor backend.
type Message struct {
	Time        int         `json:"time"`
	Observation Observation `json:"observation"`
	Aggregates  *Aggregates `json:"aggregates,omitempty"`
}

// Aggregates are the backend's running statistics over the whole session.
type Aggregates struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
	Trend *float64 `json:"trend,omitempty"`
}

// UnmarshalJSON accepts anything. Aggregates that are not a well-typed
// object decode to all-nil fields, so the reading they travel with survives
// and the stats engine falls back to the local window.
func (a *Aggregates) UnmarshalJSON(data []byte) error {
	type wire Aggregates
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		*a = Aggregates{}
		return nil
	}
	*a = Aggregates(w)
	return nil
}

// Stats converts a to the form the stats engine consumes. Incomplete
// aggregates yield nil.
func (a *Aggregates) Stats() *stats.Aggregates {
	if a == nil || a.Avg == nil || a.Min == nil || a.Max == nil {
		return nil
	}
	return &stats.Aggregates{Avg: *a.Avg, Min: *a.Min, Max: *a.Max}
}

// Value extracts the reading, preferring valueQuantity.value over a bare
// value field.
func (m Message) Value() (float64, error) {
	var v *float64
	switch {
	case m.Observation.ValueQuantity != nil && m.Observation.ValueQuantity.Value != nil:
		v = m.Observation.ValueQuantity.Value
	case m.Observation.Value != nil:
		v = m.Observation.Value
	}
	if v == nil {
		return 0, fmt.Errorf("%w: missing value", ErrMalformed)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: value %v", ErrMalformed, *v)
	}
	return *v, nil
}

// Decode parses and validates a raw message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := m.Value(); err != nil {
		return Message{}, err
	}
	return m, nil
}
